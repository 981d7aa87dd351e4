// Package tui implements the interactive terminal status view.
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
)

// Engine is the part of the engine the TUI drives.
type Engine interface {
	Status() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
	Trigger(a models.Action) (*runner.Handle, error)
	ShowStatus(ctx context.Context) (string, error)
}

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Run shows the status view until the user quits.
func Run(eng Engine) error {
	ref := &programRef{}
	p := tea.NewProgram(NewModel(eng), tea.WithAltScreen())
	ref.Set(p)
	defer ref.Clear()

	updates, unsubscribe := eng.Subscribe()
	defer unsubscribe()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case s := <-updates:
				ref.Send(SnapshotMsg{Snapshot: s})
			}
		}
	}()

	_, err := p.Run()
	return err
}
