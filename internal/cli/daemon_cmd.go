package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/status"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the LM Studio daemon (llmster)",
	Long:  `Manage the LM Studio headless daemon. Starting it stops the desktop app.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(models.ActionStartDaemon)
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(models.ActionStopDaemon)
	},
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

// actionVerbs holds progress and no-op wording per action.
var actionVerbs = map[models.Action][2]string{
	models.ActionStartDaemon:  {"Starting daemon", "Daemon is already running."},
	models.ActionStopDaemon:   {"Stopping daemon", "Daemon is not running."},
	models.ActionStartDesktop: {"Starting desktop app", "Desktop app is already running."},
	models.ActionStopDesktop:  {"Stopping desktop app", "Desktop app is not running."},
	models.ActionLoadModel:    {"Loading model", "Model is already loaded."},
}

// applyAction runs one action in the foreground and prints its result.
func applyAction(action models.Action) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return applyWith(a, action)
}

func applyWith(a *app, action models.Action) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	verbs := actionVerbs[action]
	fmt.Printf("%s...", verbs[0])
	out, err := a.ctrl.Apply(ctx, action)
	if err != nil {
		fmt.Println()
		if controller.IsConflict(err) {
			fmt.Println(render(styleWarning, "Warning: ") + err.Error())
			return nil
		}
		return err
	}
	if out.Noop {
		fmt.Println()
		fmt.Println(verbs[1])
		return nil
	}
	fmt.Println(" " + render(styleSuccess, "done."))
	if len(out.Steps) > 1 {
		fmt.Println(render(styleHint, "  steps: "+strings.Join(out.Steps, ", ")))
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st := a.prober.Probe(ctx)
	daemon := status.RuntimeStatus(st.DaemonInstalled, st.DaemonRunning)

	fmt.Printf("Daemon is %s.\n", strings.ToLower(daemon))
	if path := a.locator.Daemon(); path != "" {
		fmt.Printf("  Binary:     %s\n", path)
	}
	if cli := a.locator.CLI(); cli != "" {
		fmt.Printf("  CLI:        %s\n", cli)
	}
	if !st.DaemonRunning {
		return nil
	}

	pids := a.prober.DaemonPIDs(ctx)
	for _, pid := range pids {
		fmt.Printf("  PID:        %d\n", pid)
	}
	if len(st.LoadedModels) == 0 {
		fmt.Println("\nNo models loaded.")
		return nil
	}
	fmt.Printf("\nLoaded models (%d):\n", len(st.LoadedModels))
	for _, m := range st.LoadedModels {
		fmt.Printf("  %s\n", m)
	}
	return nil
}
