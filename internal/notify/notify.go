// Package notify shows desktop notifications.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier delivers a user-visible message.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends notifications through the host notification service.
type Desktop struct {
	icon string
	log  zerolog.Logger
}

// NewDesktop creates a Desktop notifier. icon may be a file path or empty.
func NewDesktop(appName, icon string, log zerolog.Logger) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{icon: icon, log: log}
}

// Notify never blocks the caller on a missing notification daemon; failures
// are logged and returned.
func (d *Desktop) Notify(title, message string) error {
	var icon any
	if d.icon != "" {
		icon = d.icon
	}
	if err := beeep.Notify(title, message, icon); err != nil {
		d.log.Debug().Err(err).Str("title", title).Msg("notification failed")
		return err
	}
	return nil
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// Message is one recorded notification.
type Message struct {
	Title string
	Body  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Title: title, Body: message})
	return nil
}

// Messages returns a copy of what was recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}
