package lmstudio

import (
	"path/filepath"
	"strings"
)

// daemonWorkers are helper processes spawned by the headless runtime whose
// command lines mention LM Studio.
var daemonWorkers = []string{DaemonName, "systemresourcesworker", "liblmstudioworker"}

// IsDaemonName matches the daemon by exact process name.
func IsDaemonName(name string) bool {
	return name == DaemonName
}

// IsDaemonCommandLine is the fallback match for a daemon running under a
// wrapper process name: the command's first word must be the llmster binary.
func IsDaemonCommandLine(cmdline string) bool {
	fields := strings.Fields(cmdline)
	return len(fields) > 0 && filepath.Base(fields[0]) == DaemonName
}

// IsDesktopProcess reports whether a process is the desktop app's main
// process. Only the executable is matched: name is the process name and exe
// the resolved executable path, either may be empty. Arguments never make a
// match, so "gtk-launch lm-studio" or "dpkg-query ... lm-studio" are not the
// app. Electron helpers (--type=...) are excluded via cmdline.
func IsDesktopProcess(name, exe, cmdline string) bool {
	if strings.Contains(cmdline, "--type=") {
		return false
	}
	for _, candidate := range []string{baseName(exe), baseName(name)} {
		if candidate == "" {
			continue
		}
		lower := strings.ToLower(candidate)
		for _, w := range daemonWorkers {
			if lower == w {
				return false
			}
		}
		if lower == DesktopBinName || lower == "lm studio" || IsAppImage(candidate) {
			return true
		}
	}
	return false
}

func baseName(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

// IsControlInvocation matches short-lived CLI calls such as
// "llmster daemon down" that must not count as a running daemon.
func IsControlInvocation(cmdline string) bool {
	return strings.Contains(cmdline, " daemon up") || strings.Contains(cmdline, " daemon down")
}
