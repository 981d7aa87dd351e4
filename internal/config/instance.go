package config

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/lmtray/lmtray/internal/models"
)

// LoadInstanceInfo loads the running tray's info from instance.yaml.
// Returns nil if the file doesn't exist.
func LoadInstanceInfo() (*models.InstanceInfo, error) {
	path, err := GlobalInstanceFile()
	if err != nil {
		return nil, err
	}

	if !FileExists(path) {
		return nil, nil
	}

	var info models.InstanceInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveInstanceInfo writes instance.yaml.
func SaveInstanceInfo(info *models.InstanceInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}

	path, err := GlobalInstanceFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveInstanceInfo removes instance.yaml if it still belongs to pid.
func RemoveInstanceInfo(pid int) error {
	info, err := LoadInstanceInfo()
	if err != nil || info == nil {
		return err
	}
	if info.PID != pid {
		return nil
	}
	path, err := GlobalInstanceFile()
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// IsInstanceRunning checks whether another tray process is alive.
// Returns true if instance.yaml exists and its PID answers signal 0.
func IsInstanceRunning() (bool, *models.InstanceInfo, error) {
	info, err := LoadInstanceInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil || info.PID == os.Getpid() {
		return false, info, nil
	}
	return pidAlive(info.PID), info, nil
}

// TerminateStaleInstance sends SIGTERM to a previous tray instance and waits
// up to grace for it to exit. It reports whether an instance was stopped.
func TerminateStaleInstance(grace time.Duration) (bool, error) {
	running, info, err := IsInstanceRunning()
	if err != nil || !running {
		return false, err
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return false, err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return false, nil
		}
		return false, err
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !pidAlive(info.PID) {
			return true, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	_ = process.Kill()
	return true, nil
}

func pidAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
