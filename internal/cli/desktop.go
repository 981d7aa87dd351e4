package cli

import (
	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/models"
)

var desktopCmd = &cobra.Command{
	Use:     "desktop",
	Aliases: []string{"gui"},
	Short:   "Manage the LM Studio desktop app",
	Long:    `Manage the LM Studio desktop app. Starting it stops the daemon.`,
}

var desktopStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch the desktop app",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(models.ActionStartDesktop)
	},
}

var desktopStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the desktop app",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(models.ActionStopDesktop)
	},
}

func init() {
	desktopCmd.AddCommand(desktopStartCmd)
	desktopCmd.AddCommand(desktopStopCmd)
}
