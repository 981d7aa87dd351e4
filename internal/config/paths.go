// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"

	"github.com/apparentlymart/go-userdirs/userdirs"
)

const (
	// AppName names the per-user config and data directories.
	AppName = "lmtray"

	// LogsDirName is the name of the logs directory.
	LogsDirName = "logs"

	// ConfigDirEnv overrides the config directory.
	ConfigDirEnv = "LMTRAY_CONFIG_DIR"

	// DataDirEnv overrides the data directory (logs).
	DataDirEnv = "LMTRAY_DATA_DIR"
)

// File names
const (
	InstanceFileName = "instance.yaml"
	SettingsFileName = "settings.yaml"
	LogFileName      = "lmtray.log"
)

var dirs = userdirs.ForApp(AppName, "lmtray", "io.github.lmtray")

// GlobalDir returns the per-user config directory (~/.config/lmtray on linux).
func GlobalDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	if home := dirs.ConfigHome(); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+AppName), nil
}

// DataDir returns the per-user data directory.
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	if home := dirs.DataHome(); home != "" {
		return home, nil
	}
	return GlobalDir()
}

// GlobalInstanceFile returns the path to the instance.yaml file.
func GlobalInstanceFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, InstanceFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalLogsDir returns the path to the logs directory.
func GlobalLogsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// GlobalLogFile returns the path to the main log file.
func GlobalLogFile() (string, error) {
	dir, err := GlobalLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogFileName), nil
}

// EnsureGlobalDir creates the config directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureGlobalLogsDir creates the logs directory if it doesn't exist.
func EnsureGlobalLogsDir() error {
	dir, err := GlobalLogsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
