package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lmtray/lmtray/internal/models"
)

var loadGPU string

var loadCmd = &cobra.Command{
	Use:   "load [model]",
	Short: "Load a model into the running runtime",
	Long: `Load a model into whichever runtime is running.

Without an argument the configured model is loaded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if loadGPU != "" {
			if !isValidGPU(loadGPU) {
				return fmt.Errorf("invalid GPU offload: %s", loadGPU)
			}
			a.settings.GPU = loadGPU
		}
		model := a.settings.Model
		if len(args) > 0 {
			model = args[0]
		}
		a.setModel(model)
		return applyWith(a, models.ActionLoadModel)
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadGPU, "gpu", "", "GPU offload (max, off or 0-1)")
}
