package server

import (
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/status"
)

// Health service names. The empty name is the overall status.
const (
	HealthOverall = ""
	HealthDaemon  = "lmtray.daemon"
	HealthDesktop = "lmtray.desktop"
)

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// applyHealth mirrors a snapshot into the health server.
func applyHealth(hs *health.Server, s engine.Snapshot) {
	hs.SetServingStatus(HealthOverall, servingStatus(s.Level() == status.Ready))
	hs.SetServingStatus(HealthDaemon, servingStatus(s.State.DaemonRunning))
	hs.SetServingStatus(HealthDesktop, servingStatus(s.State.DesktopRunning))
}
