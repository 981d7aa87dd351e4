package models

import "time"

// RuntimeState is one observation of the host. It is built once per probe
// and never mutated afterwards; consumers share it by pointer.
type RuntimeState struct {
	DaemonInstalled  bool      `json:"daemon_installed"`
	DaemonRunning    bool      `json:"daemon_running"`
	DesktopInstalled bool      `json:"desktop_installed"`
	DesktopRunning   bool      `json:"desktop_running"`
	ModelLoaded      bool      `json:"model_loaded"`
	ActiveModelID    string    `json:"active_model_id,omitempty"`
	LoadedModels     []string  `json:"loaded_models,omitempty"`
	ProbedAt         time.Time `json:"probed_at"`
}

// AnyRunning reports whether either runtime is up.
func (s RuntimeState) AnyRunning() bool {
	return s.DaemonRunning || s.DesktopRunning
}

// BothRunning reports the inconsistent state where both runtimes are up.
func (s RuntimeState) BothRunning() bool {
	return s.DaemonRunning && s.DesktopRunning
}

// HasModel reports whether id is among the loaded models.
func (s RuntimeState) HasModel(id string) bool {
	for _, m := range s.LoadedModels {
		if m == id {
			return true
		}
	}
	return false
}
