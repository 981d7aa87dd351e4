// Package server exposes the engine over a local HTTP API and a gRPC health
// service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
)

// Engine is the part of the engine the server exposes.
type Engine interface {
	Status() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
	Trigger(a models.Action) (*runner.Handle, error)
}

// Config selects listen addresses. An empty address disables that listener.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	CORSOrigins []string
}

// Server runs the optional listeners.
type Server struct {
	eng  Engine
	log  zerolog.Logger
	http *http.Server
	grpc *grpc.Server
	hs   *health.Server

	httpLn net.Listener
	grpcLn net.Listener
}

// New binds the configured listeners. Nothing is served until Serve.
func New(eng Engine, cfg Config, log zerolog.Logger) (*Server, error) {
	s := &Server{eng: eng, log: log}
	lc := &net.ListenConfig{}

	if cfg.HTTPAddr != "" {
		ln, err := lc.Listen(context.Background(), "tcp", cfg.HTTPAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
		}
		s.httpLn = ln
		s.http = &http.Server{
			Handler:           NewMux(eng, log, cfg.CORSOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if cfg.GRPCAddr != "" {
		ln, err := lc.Listen(context.Background(), "tcp", cfg.GRPCAddr)
		if err != nil {
			if s.httpLn != nil {
				_ = s.httpLn.Close()
			}
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
		s.grpcLn = ln
		s.grpc = grpc.NewServer()
		s.hs = health.NewServer()
		healthpb.RegisterHealthServer(s.grpc, s.hs)
		applyHealth(s.hs, eng.Status())
	}
	return s, nil
}

// HTTPAddr returns the bound HTTP address, or "".
func (s *Server) HTTPAddr() string {
	if s.httpLn == nil {
		return ""
	}
	return s.httpLn.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "".
func (s *Server) GRPCAddr() string {
	if s.grpcLn == nil {
		return ""
	}
	return s.grpcLn.Addr().String()
}

// Serve blocks until ctx ends, then shuts both listeners down.
func (s *Server) Serve(ctx context.Context) error {
	errC := make(chan error, 2)

	if s.http != nil {
		go func() {
			s.log.Info().Str("addr", s.HTTPAddr()).Msg("http api listening")
			if err := s.http.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errC <- fmt.Errorf("http: %w", err)
			}
		}()
	}

	if s.grpc != nil {
		updates, unsubscribe := s.eng.Subscribe()
		defer unsubscribe()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case snap := <-updates:
					applyHealth(s.hs, snap)
				}
			}
		}()
		go func() {
			s.log.Info().Str("addr", s.GRPCAddr()).Msg("grpc health listening")
			if err := s.grpc.Serve(s.grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errC <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errC:
	}
	s.Stop()
	return err
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.http.Shutdown(ctx)
	}
	if s.grpc != nil {
		s.hs.Shutdown()
		s.grpc.GracefulStop()
	}
}
