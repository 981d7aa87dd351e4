package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, a := range Actions {
		got, err := ParseAction(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	_, err := ParseAction("restart-everything")
	assert.ErrorContains(t, err, "unknown action")
}

func TestActionGroup(t *testing.T) {
	tests := []struct {
		action Action
		want   Group
	}{
		{ActionStartDaemon, GroupRuntime},
		{ActionStopDaemon, GroupRuntime},
		{ActionStartDesktop, GroupRuntime},
		{ActionStopDesktop, GroupRuntime},
		{ActionLoadModel, GroupRuntime},
		{ActionReload, GroupProbe},
		{ActionCheckUpdate, GroupUpdate},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Group())
		})
	}
}

func TestUpdateInfoStatus(t *testing.T) {
	checked := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		info UpdateInfo
		want string
	}{
		{"never checked", UpdateInfo{CurrentVersion: "1.0.0"}, UpdateStatusUnknown},
		{"dev build wins", UpdateInfo{DevBuild: true, Available: true, CheckedAt: checked, LatestVersion: "2.0.0"}, UpdateStatusDev},
		{"available", UpdateInfo{Available: true, CheckedAt: checked, LatestVersion: "2.0.0"}, UpdateStatusAvailable},
		{"current", UpdateInfo{CheckedAt: checked, LatestVersion: "1.0.0"}, UpdateStatusCurrent},
		{"checked without a version", UpdateInfo{CheckedAt: checked}, UpdateStatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Status())
		})
	}
}

func TestRuntimeStateHelpers(t *testing.T) {
	s := RuntimeState{DaemonRunning: true, LoadedModels: []string{"a", "b"}}
	assert.True(t, s.AnyRunning())
	assert.False(t, s.BothRunning())
	assert.True(t, s.HasModel("b"))
	assert.False(t, s.HasModel("c"))

	s.DesktopRunning = true
	assert.True(t, s.BothRunning())
}

func TestDurationText(t *testing.T) {
	d := Duration(90 * time.Second)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))

	var got Duration
	require.NoError(t, got.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, got.Std())
	assert.Error(t, got.UnmarshalText([]byte("soon")))
}

func TestSettingsNormalize(t *testing.T) {
	s := &Settings{Model: "x", Mode: "bogus"}
	s.Normalize()

	d := NewSettings()
	assert.Equal(t, "x", s.Model)
	assert.Equal(t, ModeDaemon, s.Mode)
	assert.Equal(t, d.GPU, s.GPU)
	assert.Equal(t, d.Cooldown, s.Cooldown)
	assert.Equal(t, d.Intervals, s.Intervals)
	assert.Equal(t, d.Timeouts, s.Timeouts)
	assert.Equal(t, d.Updates.ReleaseURL, s.Updates.ReleaseURL)
}
