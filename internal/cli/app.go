package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/config"
	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/executor"
	"github.com/lmtray/lmtray/internal/lmstudio"
	"github.com/lmtray/lmtray/internal/logging"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/notify"
	"github.com/lmtray/lmtray/internal/probe"
	"github.com/lmtray/lmtray/internal/updater"
)

// app wires the long-lived components shared by every command.
type app struct {
	settings     *models.Settings
	settingsPath string
	log          zerolog.Logger
	closer       io.Closer

	locator *lmstudio.Locator
	catalog *lmstudio.Catalog
	exec    *executor.Executor
	procs   probe.SystemProcesses
	prober  *probe.Prober
	checker *updater.Checker
	ctrl    *controller.Controller
}

// settingsPath returns --config or the default settings file.
func settingsPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.GlobalSettingsFile()
}

func loadSettings() (*models.Settings, string, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, "", err
	}
	s, err := config.LoadSettingsFrom(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load settings: %w", err)
	}
	if debugFlag {
		s.Debug = true
	}
	return s, path, nil
}

// newApp loads settings and builds the component graph. Logs go to the log
// file; --debug mirrors them to the console.
func newApp() (*app, error) {
	s, path, err := loadSettings()
	if err != nil {
		return nil, err
	}

	logFile, err := config.GlobalLogFile()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.Setup(logging.Options{Debug: s.Debug, File: logFile})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &app{
		settings:     s,
		settingsPath: path,
		log:          log,
		closer:       closer,
	}
	a.locator = lmstudio.NewLocator(s.Paths)
	a.catalog = lmstudio.NewCatalog(a.locator)
	a.exec = executor.New(executor.ExecLauncher{}, logging.Component(log, "executor"))
	a.prober = probe.New(a.catalog, a.procs, a.exec, s.Timeouts.Probe.Std(), logging.Component(log, "probe"))
	a.checker = updater.NewChecker(s.Updates.ReleaseURL)
	a.ctrl = controller.New(a.prober, a.procs, a.exec, a.catalog, a.checker, controller.Config{
		CommandTimeout: s.Timeouts.Command.Std(),
		Settle:         s.Timeouts.Settle.Std(),
		StopGrace:      s.Timeouts.StopGrace.Std(),
		Model:          s.Model,
		GPU:            s.GPU,
	}, logging.Component(log, "controller"))
	return a, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

// setModel updates every component that knows the expected model.
func (a *app) setModel(model string) {
	a.settings.Model = model
	a.ctrl.SetModel(model, a.settings.GPU)
}

// newEngine builds the engine. checkUpdates enables the periodic check.
func (a *app) newEngine(n notify.Notifier, checkUpdates bool) *engine.Engine {
	s := a.settings
	return engine.New(engine.Deps{
		Probe:    a.prober,
		Apply:    a.ctrl.Apply,
		Updates:  a.checker,
		Notifier: n,
		Report:   a.report,
	}, engine.Options{
		PollInterval:   s.Intervals.Poll.Std(),
		UpdateInterval: s.Intervals.UpdateCheck.Std(),
		CheckUpdates:   checkUpdates,
		Cooldown:       s.Cooldown.Std(),
		Model:          s.Model,
		Notify:         s.Notifications,
	}, logging.Component(a.log, "engine"))
}

// report returns the plain `lms ps` listing.
func (a *app) report(ctx context.Context) (string, error) {
	cli := a.locator.CLI()
	if cli == "" {
		return "", fmt.Errorf("lms CLI: %w", controller.ErrNotInstalled)
	}
	at := a.exec.RunOnce(ctx, executor.Invocation{Path: cli, Args: []string{"ps"}}, a.settings.Timeouts.Command.Std())
	if !at.Succeeded {
		if at.Err != nil {
			return "", fmt.Errorf("lms ps: %w", at.Err)
		}
		return "", fmt.Errorf("lms ps: exit %d", at.ExitCode)
	}
	return at.Output, nil
}

// watchDirs lists install locations worth watching.
func (a *app) watchDirs() []string {
	var dirs []string
	if d := a.locator.LMStudioDir(); d != "" {
		dirs = append(dirs, d, filepath.Join(d, "bin"), filepath.Join(d, "llmster"))
	}
	return append(dirs, a.locator.SearchDirs()...)
}
