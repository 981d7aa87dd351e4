package models

import "time"

// Update status labels.
const (
	UpdateStatusAvailable = "Update available"
	UpdateStatusCurrent   = "Up to date"
	UpdateStatusDev       = "Dev build"
	UpdateStatusUnknown   = "Unknown"
)

// UpdateInfo is the result of the latest release check. A failed check keeps
// the previous values and sets Stale.
type UpdateInfo struct {
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version,omitempty"`
	ReleaseURL     string    `json:"release_url,omitempty"`
	CheckedAt      time.Time `json:"checked_at,omitempty"`
	Available      bool      `json:"available"`
	DevBuild       bool      `json:"dev_build"`
	Stale          bool      `json:"stale"`
	LastError      string    `json:"last_error,omitempty"`
}

// Status returns the label shown next to the version.
func (u UpdateInfo) Status() string {
	switch {
	case u.DevBuild:
		return UpdateStatusDev
	case u.CheckedAt.IsZero() || u.LatestVersion == "":
		return UpdateStatusUnknown
	case u.Available:
		return UpdateStatusAvailable
	default:
		return UpdateStatusCurrent
	}
}
