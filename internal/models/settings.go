package models

import "time"

// Start modes.
const (
	ModeDaemon  = "daemon"
	ModeDesktop = "gui"
)

// IntervalsConfig holds recurring cadences.
type IntervalsConfig struct {
	Poll        Duration `yaml:"poll" json:"poll" toml:"poll"`
	UpdateCheck Duration `yaml:"update_check" json:"update_check" toml:"update_check"`
}

// TimeoutsConfig bounds external commands and post-action waits.
type TimeoutsConfig struct {
	Command   Duration `yaml:"command" json:"command" toml:"command"`
	Probe     Duration `yaml:"probe" json:"probe" toml:"probe"`
	Settle    Duration `yaml:"settle" json:"settle" toml:"settle"`
	StopGrace Duration `yaml:"stop_grace" json:"stop_grace" toml:"stop_grace"`
}

// UpdatesConfig holds settings for update checking.
type UpdatesConfig struct {
	CheckOnStartup bool       `yaml:"check_on_startup" json:"check_on_startup" toml:"check_on_startup"`
	ReleaseURL     string     `yaml:"release_url" json:"release_url" toml:"release_url"`
	LastChecked    *time.Time `yaml:"last_checked,omitempty" json:"last_checked,omitempty" toml:"last_checked,omitempty"`
}

// PathsConfig overrides binary discovery. Empty values mean auto-detect.
type PathsConfig struct {
	LMS        string   `yaml:"lms" json:"lms" toml:"lms"`
	Daemon     string   `yaml:"daemon" json:"daemon" toml:"daemon"`
	DesktopApp string   `yaml:"desktop_app" json:"desktop_app" toml:"desktop_app"`
	AppDirs    []string `yaml:"app_dirs" json:"app_dirs" toml:"app_dirs"`
}

// ServerConfig holds the optional local API listeners. Empty disables.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" json:"http_addr" toml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr" json:"grpc_addr" toml:"grpc_addr"`
}

// Settings represents global application settings.
// This corresponds to <config home>/settings.yaml.
type Settings struct {
	Version         int             `yaml:"version" json:"version" toml:"version"`
	Model           string          `yaml:"model" json:"model" toml:"model"`
	GPU             string          `yaml:"gpu" json:"gpu" toml:"gpu"`
	Mode            string          `yaml:"mode" json:"mode" toml:"mode"`
	AutoStartDaemon bool            `yaml:"auto_start_daemon" json:"auto_start_daemon" toml:"auto_start_daemon"`
	Debug           bool            `yaml:"debug" json:"debug" toml:"debug"`
	Notifications   bool            `yaml:"notifications" json:"notifications" toml:"notifications"`
	Cooldown        Duration        `yaml:"cooldown" json:"cooldown" toml:"cooldown"`
	Intervals       IntervalsConfig `yaml:"intervals" json:"intervals" toml:"intervals"`
	Timeouts        TimeoutsConfig  `yaml:"timeouts" json:"timeouts" toml:"timeouts"`
	Updates         UpdatesConfig   `yaml:"updates" json:"updates" toml:"updates"`
	Paths           PathsConfig     `yaml:"paths" json:"paths" toml:"paths"`
	Server          ServerConfig    `yaml:"server" json:"server" toml:"server"`
}

// DefaultReleaseURL is the release feed queried by the update checker.
const DefaultReleaseURL = "https://api.github.com/repos/lmtray/lmtray/releases/latest"

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:       1,
		GPU:           "max",
		Mode:          ModeDaemon,
		Notifications: true,
		Cooldown:      Duration(2 * time.Second),
		Intervals: IntervalsConfig{
			Poll:        Duration(10 * time.Second),
			UpdateCheck: Duration(24 * time.Hour),
		},
		Timeouts: TimeoutsConfig{
			Command:   Duration(20 * time.Second),
			Probe:     Duration(5 * time.Second),
			Settle:    Duration(3 * time.Second),
			StopGrace: Duration(5 * time.Second),
		},
		Updates: UpdatesConfig{
			CheckOnStartup: true,
			ReleaseURL:     DefaultReleaseURL,
		},
	}
}

// Normalize fills zero values with defaults so partially written files stay usable.
func (s *Settings) Normalize() {
	d := NewSettings()
	if s.GPU == "" {
		s.GPU = d.GPU
	}
	if s.Mode != ModeDesktop {
		s.Mode = ModeDaemon
	}
	if s.Cooldown <= 0 {
		s.Cooldown = d.Cooldown
	}
	if s.Intervals.Poll <= 0 {
		s.Intervals.Poll = d.Intervals.Poll
	}
	if s.Intervals.UpdateCheck <= 0 {
		s.Intervals.UpdateCheck = d.Intervals.UpdateCheck
	}
	if s.Timeouts.Command <= 0 {
		s.Timeouts.Command = d.Timeouts.Command
	}
	if s.Timeouts.Probe <= 0 {
		s.Timeouts.Probe = d.Timeouts.Probe
	}
	if s.Timeouts.Settle <= 0 {
		s.Timeouts.Settle = d.Timeouts.Settle
	}
	if s.Timeouts.StopGrace <= 0 {
		s.Timeouts.StopGrace = d.Timeouts.StopGrace
	}
	if s.Updates.ReleaseURL == "" {
		s.Updates.ReleaseURL = d.Updates.ReleaseURL
	}
}

// Duration is a time.Duration that reads and writes as "10s" in every
// settings format.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
