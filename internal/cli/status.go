package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/notify"
)

var (
	statusJSON   bool
	statusModels bool
	statusCheck  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show LM Studio status",
	Long:  `Probe the host once and print the same status the tray shows.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusModels, "models", false, "Also print the raw `lms ps` listing")
	statusCmd.Flags().BoolVar(&statusCheck, "check-update", false, "Query the release feed before printing")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if statusCheck {
		if _, err := a.checker.CheckNow(ctx); err != nil {
			a.log.Warn().Err(err).Msg("update check failed")
		}
	}

	eng := a.newEngine(notify.Nop{}, false)
	snap := eng.Refresh(ctx)

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	printSnapshot(snap)

	running, info, _ := GetInstanceStatus()
	if running && info != nil {
		uptime := time.Since(info.StartedAt).Truncate(time.Second)
		fmt.Printf("\n%s %s\n", render(styleLabel, "Tray:"), render(styleValue, fmt.Sprintf("running (PID %d, up %s)", info.PID, uptime)))
		if info.HTTPAddr != "" {
			fmt.Printf("  %s %s\n", render(styleLabel, "HTTP:"), info.HTTPAddr)
		}
		if info.GRPCAddr != "" {
			fmt.Printf("  %s %s\n", render(styleLabel, "gRPC:"), info.GRPCAddr)
		}
	} else {
		fmt.Printf("\n%s %s\n", render(styleLabel, "Tray:"), render(styleHint, "not running (start with `lmtray run`)"))
	}

	if statusModels {
		out, err := a.report(ctx)
		if err != nil {
			return err
		}
		if out == "" {
			out = "No models loaded"
		}
		fmt.Printf("\n%s\n", out)
	}
	return nil
}

func printSnapshot(snap engine.Snapshot) {
	p := snap.Presentation
	badge := render(levelBadges[p.Level], p.Level.Label())
	fmt.Printf("%s %s\n\n", render(styleBrand, "LM Studio:"), badge)
	fmt.Printf("  %s\n", p.Daemon)
	fmt.Printf("  %s\n", p.Desktop)
	if p.Model != "" {
		fmt.Printf("  %s\n", p.Model)
	}
	version := p.Version
	if snap.Update.Available {
		version = render(styleUpdate, version)
	}
	fmt.Printf("\n%s %s\n", render(styleLabel, "lmtray:"), version)
}
