package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/notify"
	"github.com/lmtray/lmtray/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal dashboard",
	Long: `Open an interactive terminal dashboard with the same actions as the
tray menu. Notifications are shown inline instead of on the desktop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		eng := a.newEngine(notify.Nop{}, a.settings.Updates.CheckOnStartup)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := eng.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("engine stopped")
			}
		}()

		err = tui.Run(eng)
		cancel()
		<-done
		return err
	},
}
