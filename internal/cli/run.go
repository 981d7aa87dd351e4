package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/config"
	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/logging"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/notify"
	"github.com/lmtray/lmtray/internal/server"
	"github.com/lmtray/lmtray/internal/tray"
	"github.com/lmtray/lmtray/internal/watcher"
)

var (
	runGUI       bool
	runAutoStart bool
	runNoTray    bool
	runHTTPAddr  string
	runGRPCAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run [model]",
	Short: "Start the tray supervisor",
	Long: `Start the tray supervisor.

The optional model is the one expected to be loaded; "Reload Model" loads it.
With --gui the desktop app is started instead of the daemon. With
--auto-start-daemon the daemon is started at launch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runGUI, "gui", "g", false, "Start the desktop app at launch")
	runCmd.Flags().BoolVarP(&runAutoStart, "auto-start-daemon", "a", false, "Start the daemon at launch")
	runCmd.Flags().BoolVar(&runNoTray, "no-tray", false, "Run without a system tray icon")
	runCmd.Flags().StringVar(&runHTTPAddr, "http-addr", "", "Serve the local HTTP API on this address")
	runCmd.Flags().StringVar(&runGRPCAddr, "grpc-addr", "", "Serve the gRPC health service on this address")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) > 0 {
		a.setModel(args[0])
	}
	if runGUI {
		a.settings.Mode = models.ModeDesktop
	}
	if runAutoStart {
		a.settings.AutoStartDaemon = true
	}
	if cmd.Flags().Changed("http-addr") {
		a.settings.Server.HTTPAddr = runHTTPAddr
	}
	if cmd.Flags().Changed("grpc-addr") {
		a.settings.Server.GRPCAddr = runGRPCAddr
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var n notify.Notifier = notify.Nop{}
	if a.settings.Notifications {
		n = notify.NewDesktop("lmtray", "", logging.Component(a.log, "notify"))
	}
	eng := a.newEngine(n, a.settings.Updates.CheckOnStartup)

	srv, err := server.New(eng, server.Config{
		HTTPAddr: a.settings.Server.HTTPAddr,
		GRPCAddr: a.settings.Server.GRPCAddr,
	}, logging.Component(a.log, "server"))
	if err != nil {
		return err
	}

	if err := claimInstance(a, srv.HTTPAddr(), srv.GRPCAddr()); err != nil {
		return err
	}
	defer releaseInstance(a)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sup := &supervisor{app: a, eng: eng, srv: srv, notifier: n}

	if runNoTray {
		sup.start(ctx)
		<-ctx.Done()
		sup.stop(cancel)
		return nil
	}

	// systray.Run must occupy the main goroutine on macOS.
	go func() {
		<-ctx.Done()
		tray.Quit()
	}()
	t := tray.New(eng, logging.Component(a.log, "tray"), func() { sup.start(ctx) }, func() { sup.stop(cancel) })
	t.Run()
	return nil
}

// supervisor owns the background goroutines of a run.
type supervisor struct {
	app      *app
	eng      *engine.Engine
	srv      *server.Server
	notifier notify.Notifier
	w        *watcher.Watcher
	wg       sync.WaitGroup
	once     sync.Once
}

func (s *supervisor) start(ctx context.Context) {
	a := s.app
	a.log.Info().
		Int("pid", os.Getpid()).
		Str("model", a.settings.Model).
		Str("mode", a.settings.Mode).
		Msg("lmtray started")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.eng.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("engine stopped")
		}
	}()
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ctx); err != nil {
			a.log.Error().Err(err).Msg("server stopped")
		}
	}()

	w, err := watcher.New(a.settingsPath, logging.Component(a.log, "watcher"))
	if err != nil {
		a.log.Warn().Err(err).Msg("file watching disabled")
	} else if err := w.Start(a.watchDirs()); err != nil {
		a.log.Warn().Err(err).Msg("file watching disabled")
	} else {
		s.w = w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.watch(ctx)
		}()
	}

	if a.settings.Model != "" && a.settings.Notifications {
		_ = s.notifier.Notify("LM Studio", fmt.Sprintf("Model status: %s is being monitored", a.settings.Model))
	}
	s.autoStart()
}

// autoStart applies the launch mode.
func (s *supervisor) autoStart() {
	a := s.app
	var action models.Action
	switch {
	case a.settings.Mode == models.ModeDesktop:
		action = models.ActionStartDesktop
	case a.settings.AutoStartDaemon:
		action = models.ActionStartDaemon
	default:
		return
	}
	if _, err := s.eng.Trigger(action); err != nil && !errors.Is(err, engine.ErrDebounced) {
		a.log.Warn().Err(err).Str("action", string(action)).Msg("auto start failed")
	}
}

func (s *supervisor) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.w.Events():
			if ev.Type == watcher.EventSettingsChanged {
				s.reloadSettings()
			}
			s.eng.RequestReload()
		}
	}
}

// reloadSettings picks up a new expected model. Other settings need a restart.
func (s *supervisor) reloadSettings() {
	a := s.app
	fresh, err := config.LoadSettingsFrom(a.settingsPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("ignoring unreadable settings")
		return
	}
	if fresh.Model != a.settings.Model && fresh.Model != "" {
		a.log.Info().Str("model", fresh.Model).Msg("expected model changed")
		a.setModel(fresh.Model)
		s.eng.SetModel(fresh.Model)
	}
}

func (s *supervisor) stop(cancel context.CancelFunc) {
	s.once.Do(func() {
		cancel()
		if s.w != nil {
			s.w.Stop()
		}
		s.wg.Wait()
		s.app.log.Info().Msg("lmtray stopped")
	})
}
