package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmtray/lmtray/internal/models"
)

func TestIsValidGPU(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"max", true},
		{"MAX", true},
		{"off", true},
		{"0", true},
		{"0.5", true},
		{"1", true},
		{"1.5", false},
		{"-0.1", false},
		{"half", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidGPU(tt.in))
		})
	}
}

func TestPromptYesNoWithCurrent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		current bool
		want    bool
	}{
		{"empty keeps true", "\n", true, true},
		{"empty keeps false", "\n", false, false},
		{"y", "y\n", false, true},
		{"YES", "YES\n", false, true},
		{"no", "no\n", true, false},
		{"garbage is no", "maybe\n", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := bufio.NewReader(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, promptYesNoWithCurrent(r, &out, "Continue?", tt.current))
			assert.Contains(t, out.String(), "Continue?")
		})
	}
}

func TestPromptSettings(t *testing.T) {
	t.Run("keeps everything on empty input", func(t *testing.T) {
		s := models.NewSettings()
		s.Model = "qwen2.5-7b"
		r := bufio.NewReader(strings.NewReader("\n\n\n\n\n"))

		changed, err := promptSettings(r, &bytes.Buffer{}, s)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "qwen2.5-7b", s.Model)
	})

	t.Run("applies new values", func(t *testing.T) {
		s := models.NewSettings()
		r := bufio.NewReader(strings.NewReader("llama-3.2-3b\n0.5\nGUI\ny\nn\n"))

		changed, err := promptSettings(r, &bytes.Buffer{}, s)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "llama-3.2-3b", s.Model)
		assert.Equal(t, "0.5", s.GPU)
		assert.Equal(t, models.ModeDesktop, s.Mode)
		assert.True(t, s.AutoStartDaemon)
		assert.False(t, s.Notifications)
	})

	t.Run("rejects bad gpu", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("\nlots\n"))
		_, err := promptSettings(r, &bytes.Buffer{}, models.NewSettings())
		assert.ErrorContains(t, err, "invalid GPU offload")
	})

	t.Run("rejects bad mode", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("\n\nserver\n"))
		_, err := promptSettings(r, &bytes.Buffer{}, models.NewSettings())
		assert.ErrorContains(t, err, "invalid start mode")
	})
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"configure", "daemon", "desktop", "health", "load", "run", "settings", "status", "tui", "update", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}
