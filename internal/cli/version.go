package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/buildinfo"
)

// VersionInfo holds version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Go        string `json:"go"`
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := loadVersionInfo()
		if versionJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", render(styleBrand, "lmtray"), render(styleVersion, info.Version))
		fmt.Fprintf(out, "  Commit:  %s (%s)\n", info.Commit, info.BuildDate)
		fmt.Fprintf(out, "  OS/Arch: %s/%s\n", info.OS, info.Arch)
		fmt.Fprintf(out, "  Go:      %s\n", info.Go)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}

func loadVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   buildinfo.Version,
		Commit:    buildinfo.CommitHash,
		BuildDate: buildinfo.BuildDate,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Go:        runtime.Version(),
	}
}
