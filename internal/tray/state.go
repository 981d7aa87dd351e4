// Package tray implements the system tray icon and menu.
package tray

import (
	"context"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
)

// Engine is the part of the engine the tray drives.
type Engine interface {
	Status() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
	Trigger(a models.Action) (*runner.Handle, error)
	ShowStatus(ctx context.Context) (string, error)
}
