package lmstudio

import (
	"time"

	"github.com/lmtray/lmtray/internal/executor"
)

// Operation names used in logs, metrics and errors.
const (
	OpStartDaemon   = "start-daemon"
	OpStopDaemon    = "stop-daemon"
	OpLaunchDesktop = "launch-desktop"
	OpListModels    = "list-models"
	OpLoadModel     = "load-model"
	OpPackageQuery  = "package-query"
)

// Catalog builds the fallback chains for each operation from what the
// Locator finds. Specs are rebuilt per call so newly installed binaries
// are picked up.
type Catalog struct {
	loc *Locator
}

// NewCatalog creates a Catalog.
func NewCatalog(loc *Locator) *Catalog {
	return &Catalog{loc: loc}
}

// Locator returns the underlying locator.
func (c *Catalog) Locator() *Locator { return c.loc }

// StartDaemon: lms daemon up, then llmster daemon up.
func (c *Catalog) StartDaemon() executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpStartDaemon}
	spec.Add(c.loc.CLI(), "daemon", "up")
	spec.Add(c.loc.Daemon(), "daemon", "up")
	return spec
}

// StopDaemon: lms daemon down, then llmster daemon down.
func (c *Catalog) StopDaemon() executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpStopDaemon}
	spec.Add(c.loc.CLI(), "daemon", "down")
	spec.Add(c.loc.Daemon(), "daemon", "down")
	return spec
}

// ListModels: lms ps --json, then plain lms ps.
func (c *Catalog) ListModels() executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpListModels}
	cli := c.loc.CLI()
	spec.Add(cli, "ps", "--json")
	spec.Add(cli, "ps")
	return spec
}

// LoadModel loads model with the given GPU offload, falling back to CPU
// only (--gpu 0) when that fails.
func (c *Catalog) LoadModel(model, gpu string) executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpLoadModel}
	cli := c.loc.CLI()
	if gpu != "" && gpu != "0" {
		spec.Add(cli, "load", model, "--gpu", gpu, "--yes")
	}
	spec.Add(cli, "load", model, "--gpu", "0", "--yes")
	return spec
}

// LaunchDesktop: the app binary itself, the desktop entry launcher, then
// the generic opener. Each candidate is judged by re-probing after settle.
func (c *Catalog) LaunchDesktop(settle time.Duration) executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpLaunchDesktop, ConfirmByProbe: true, Settle: settle}
	app := c.loc.DesktopApp()

	if c.loc.goos == "darwin" {
		if open := c.loc.Tool("open"); open != "" {
			spec.Candidates = append(spec.Candidates, executor.Invocation{Path: open, Args: []string{"-a", "LM Studio"}, Detached: true})
		}
		return spec
	}

	if app != "" {
		spec.Candidates = append(spec.Candidates, executor.Invocation{Path: app, Detached: true})
	}
	if gtk := c.loc.Tool("gtk-launch"); gtk != "" {
		spec.Candidates = append(spec.Candidates, executor.Invocation{Path: gtk, Args: []string{DesktopBinName}, Detached: true})
	}
	if xdg := c.loc.Tool("xdg-open"); xdg != "" && app != "" {
		spec.Candidates = append(spec.Candidates, executor.Invocation{Path: xdg, Args: []string{app}, Detached: true})
	}
	return spec
}

// PackageQuery asks the package manager whether the desktop package is
// installed.
func (c *Catalog) PackageQuery() executor.CommandSpec {
	spec := executor.CommandSpec{Op: OpPackageQuery}
	spec.Add(c.loc.Tool("dpkg-query"), "-W", "-f=${Status}", DesktopPackage)
	spec.Add(c.loc.Tool("dpkg"), "-l", DesktopPackage)
	return spec
}
