// Package cli implements the lmtray CLI commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/buildinfo"
)

var (
	debugFlag  bool
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "lmtray",
	Short: "Supervise a local LM Studio installation",
	Long: `lmtray watches the LM Studio headless daemon (llmster) and the desktop
app, keeps at most one of them running, and shows whether a model is loaded.`,
	Version:       buildinfo.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging on the console")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Settings file (yaml, json or toml)")
	rootCmd.SetVersionTemplate("lmtray {{.Version}}\n")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(desktopCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
