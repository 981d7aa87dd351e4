package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/lmtray/lmtray/internal/config"
	"github.com/lmtray/lmtray/internal/models"
)

// claimInstance stops a previous tray instance, if any, and records this one.
func claimInstance(a *app, httpAddr, grpcAddr string) error {
	stopped, err := config.TerminateStaleInstance(a.settings.Timeouts.StopGrace.Std())
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to stop previous instance")
	} else if stopped {
		a.log.Info().Msg("stopped previous instance")
	}

	info := models.NewInstanceInfo(os.Getpid(), httpAddr, grpcAddr)
	if err := config.SaveInstanceInfo(info); err != nil {
		return fmt.Errorf("failed to write instance info: %w", err)
	}
	return nil
}

func releaseInstance(a *app) {
	if err := config.RemoveInstanceInfo(os.Getpid()); err != nil {
		a.log.Warn().Err(err).Msg("failed to remove instance info")
	}
}

// GetInstanceStatus returns the running tray instance, if any.
func GetInstanceStatus() (bool, *InstanceStatusInfo, error) {
	running, info, err := config.IsInstanceRunning()
	if err != nil {
		return false, nil, err
	}
	if !running || info == nil {
		return false, nil, nil
	}
	return true, &InstanceStatusInfo{
		PID:       info.PID,
		HTTPAddr:  info.HTTPAddr,
		GRPCAddr:  info.GRPCAddr,
		StartedAt: info.StartedAt,
	}, nil
}

// InstanceStatusInfo contains tray instance information.
type InstanceStatusInfo struct {
	PID       int
	HTTPAddr  string
	GRPCAddr  string
	StartedAt time.Time
}
