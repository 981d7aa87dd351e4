package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmtray/lmtray/internal/models"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "LMTRAY_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

var osLookup LookupFunc = os.LookupEnv

// ApplyEnv overlays LMTRAY_* variables onto s. Durations accept Go syntax
// ("1m30s") or a bare number of seconds.
func ApplyEnv(s *models.Settings, lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("DEBUG"); ok {
		s.Debug = parseBool(v)
	}
	if v, ok := get("MODEL"); ok {
		s.Model = v
	}
	if v, ok := get("GPU"); ok && v != "" {
		s.GPU = v
	}
	if v, ok := get("MODE"); ok {
		s.Mode = v
	}
	if v, ok := get("AUTO_START_DAEMON"); ok {
		s.AutoStartDaemon = parseBool(v)
	}

	durations := []struct {
		name string
		dst  *models.Duration
	}{
		{"POLL_INTERVAL", &s.Intervals.Poll},
		{"UPDATE_INTERVAL", &s.Intervals.UpdateCheck},
		{"COMMAND_TIMEOUT", &s.Timeouts.Command},
		{"PROBE_TIMEOUT", &s.Timeouts.Probe},
		{"SETTLE_DELAY", &s.Timeouts.Settle},
		{"STOP_GRACE", &s.Timeouts.StopGrace},
		{"COOLDOWN", &s.Cooldown},
	}
	for _, d := range durations {
		v, ok := get(d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
		}
		*d.dst = models.Duration(parsed)
	}

	if v, ok := get("HTTP_ADDR"); ok {
		s.Server.HTTPAddr = v
	}
	if v, ok := get("GRPC_ADDR"); ok {
		s.Server.GRPCAddr = v
	}
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
