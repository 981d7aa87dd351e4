// Package lmstudio knows where LM Studio lives on a host, which commands
// drive it, and how to read their output.
package lmstudio

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/lmtray/lmtray/internal/models"
)

// Binary and process names.
const (
	CLIName        = "lms"
	DaemonName     = "llmster"
	DesktopBinName = "lm-studio"
	DesktopPackage = "lm-studio"
	DarwinAppPath  = "/Applications/LM Studio.app"
)

// Locator resolves LM Studio binaries. Configured paths win over discovery.
type Locator struct {
	home     string
	workDir  string
	goos     string
	paths    models.PathsConfig
	lookPath func(string) (string, error)
}

// NewLocator creates a Locator for the current user.
func NewLocator(paths models.PathsConfig) *Locator {
	home, _ := os.UserHomeDir()
	wd, _ := os.Getwd()
	return &Locator{
		home:     home,
		workDir:  wd,
		goos:     runtime.GOOS,
		paths:    paths,
		lookPath: exec.LookPath,
	}
}

// LMStudioDir returns ~/.lmstudio.
func (l *Locator) LMStudioDir() string {
	if l.home == "" {
		return ""
	}
	return filepath.Join(l.home, ".lmstudio")
}

// CLI returns the lms CLI path, preferring ~/.lmstudio/bin/lms over PATH.
func (l *Locator) CLI() string {
	if p := l.paths.LMS; p != "" && isExecutable(p) {
		return p
	}
	if dir := l.LMStudioDir(); dir != "" {
		if p := filepath.Join(dir, "bin", CLIName); isExecutable(p) {
			return p
		}
	}
	return l.Tool(CLIName)
}

// Daemon returns the llmster binary, checking PATH and then the newest
// versioned install under ~/.lmstudio/llmster.
func (l *Locator) Daemon() string {
	if p := l.paths.Daemon; p != "" && isExecutable(p) {
		return p
	}
	if p := l.Tool(DaemonName); p != "" {
		return p
	}
	return l.newestDaemonInstall()
}

func (l *Locator) newestDaemonInstall() string {
	if l.home == "" {
		return ""
	}
	root := filepath.Join(l.LMStudioDir(), DaemonName)
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}

	type candidate struct {
		version string
		path    string
	}
	var found []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, rel := range []string{DaemonName, filepath.Join("bin", DaemonName)} {
			p := filepath.Join(root, e.Name(), rel)
			if isExecutable(p) {
				found = append(found, candidate{version: e.Name(), path: p})
				break
			}
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Slice(found, func(i, j int) bool {
		return compareVersionDirs(found[i].version, found[j].version) > 0
	})
	return found[0].path
}

// DesktopApp returns a launchable desktop app: a configured path, an
// lm-studio binary on PATH, an AppImage in the search directories, or the
// macOS bundle.
func (l *Locator) DesktopApp() string {
	if p := l.paths.DesktopApp; p != "" && exists(p) {
		return p
	}
	if p := l.Tool(DesktopBinName); p != "" {
		return p
	}
	if l.goos == "darwin" && exists(DarwinAppPath) {
		return DarwinAppPath
	}
	for _, dir := range l.SearchDirs() {
		if p := findAppImage(dir); p != "" {
			return p
		}
	}
	return ""
}

// SearchDirs lists where AppImages are looked for, in priority order.
func (l *Locator) SearchDirs() []string {
	dirs := append([]string{}, l.paths.AppDirs...)
	if l.workDir != "" {
		dirs = append(dirs, l.workDir)
	}
	if l.home != "" {
		for _, d := range []string{"Apps", "Applications", ".local/bin", "Downloads"} {
			dirs = append(dirs, filepath.Join(l.home, d))
		}
	}
	dirs = append(dirs, "/opt/lm-studio", "/opt")
	return dirs
}

// Tool resolves a helper binary on PATH to an absolute path.
func (l *Locator) Tool(name string) string {
	p, err := l.lookPath(name)
	if err != nil {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// IsAppImage reports whether a file name looks like an LM Studio AppImage.
func IsAppImage(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".appimage") {
		return false
	}
	return strings.Contains(lower, "lm-studio") ||
		strings.Contains(lower, "lm_studio") ||
		strings.Contains(lower, "lmstudio") ||
		strings.Contains(lower, "lm studio")
}

func findAppImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() || !IsAppImage(e.Name()) {
			continue
		}
		matches = append(matches, filepath.Join(dir, e.Name()))
	}
	if len(matches) == 0 {
		return ""
	}
	// Versioned file names sort oldest first; take the newest.
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// compareVersionDirs orders names like "0.0.10" numerically per segment.
func compareVersionDirs(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		xn, xerr := strconv.Atoi(x)
		yn, yerr := strconv.Atoi(y)
		switch {
		case xerr == nil && yerr == nil:
			if xn != yn {
				if xn < yn {
					return -1
				}
				return 1
			}
		case x != y:
			return strings.Compare(x, y)
		}
	}
	return 0
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NewLocatorFor builds a Locator rooted at home that resolves PATH lookups
// through lookPath.
func NewLocatorFor(paths models.PathsConfig, home string, lookPath func(string) (string, error)) *Locator {
	return &Locator{
		home:     home,
		goos:     runtime.GOOS,
		paths:    paths,
		lookPath: lookPath,
	}
}
