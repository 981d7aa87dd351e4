package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer lmtray release",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		fmt.Println("Checking for updates...")
		info, err := a.checker.CheckNow(ctx)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}

		current := strings.TrimPrefix(info.CurrentVersion, "v")
		latest := strings.TrimPrefix(info.LatestVersion, "v")
		switch {
		case info.DevBuild:
			fmt.Printf("Running a dev build; latest release is v%s.\n", latest)
		case !info.Available:
			fmt.Printf("Already up to date (v%s).\n", current)
		default:
			fmt.Println(render(styleUpdate, fmt.Sprintf("Update available: v%s → v%s", current, latest)))
			if info.ReleaseURL != "" {
				fmt.Printf("Release: %s\n", info.ReleaseURL)
			}
		}
		return nil
	},
}
