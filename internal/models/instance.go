package models

import "time"

// InstanceInfo records the running tray process.
// This corresponds to <config home>/instance.yaml.
type InstanceInfo struct {
	Version   int       `yaml:"version"`
	PID       int       `yaml:"pid"`
	HTTPAddr  string    `yaml:"http_addr,omitempty"`
	GRPCAddr  string    `yaml:"grpc_addr,omitempty"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewInstanceInfo creates instance info for the given process.
func NewInstanceInfo(pid int, httpAddr, grpcAddr string) *InstanceInfo {
	return &InstanceInfo{
		Version:   1,
		PID:       pid,
		HTTPAddr:  httpAddr,
		GRPCAddr:  grpcAddr,
		StartedAt: time.Now().UTC(),
	}
}
