package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lmtray/lmtray/internal/server"
)

var healthAddr string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query the running tray's gRPC health service",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "", "gRPC address (defaults to the running instance)")
}

// connectInstance establishes a gRPC connection to the running tray.
func connectInstance() (*grpc.ClientConn, error) {
	addr := healthAddr
	if addr == "" {
		running, info, err := GetInstanceStatus()
		if err != nil {
			return nil, fmt.Errorf("failed to load instance info: %w", err)
		}
		if !running || info == nil {
			return nil, fmt.Errorf("lmtray is not running")
		}
		if info.GRPCAddr == "" {
			return nil, fmt.Errorf("running instance has no gRPC listener (start it with --grpc-addr)")
		}
		addr = info.GRPCAddr
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	conn, err := connectInstance()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	services := []struct {
		label string
		name  string
	}{
		{"Ready", server.HealthOverall},
		{"Daemon", server.HealthDaemon},
		{"Desktop App", server.HealthDesktop},
	}
	for _, svc := range services {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc.name})
		if err != nil {
			return fmt.Errorf("health check %q: %w", svc.label, err)
		}
		style := styleWarning
		if resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			style = styleSuccess
		}
		fmt.Printf("%-12s %s\n", svc.label+":", render(style, resp.GetStatus().String()))
	}
	return nil
}
