package tui

import (
	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
)

// SnapshotMsg carries a newly published snapshot.
type SnapshotMsg struct {
	Snapshot engine.Snapshot
}

// ActionResultMsg reports whether a trigger was accepted.
type ActionResultMsg struct {
	Action models.Action
	Err    error
}

// ReportMsg carries the raw model listing.
type ReportMsg struct {
	Text string
	Err  error
}

type clearMessageMsg struct{}
