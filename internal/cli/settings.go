package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lmtray/lmtray/internal/config"
	"github.com/lmtray/lmtray/internal/models"
)

var configureCmd = &cobra.Command{
	Use:     "configure",
	Aliases: []string{"config"},
	Short:   "Configure lmtray settings",
	Long: `Configure lmtray settings interactively.

This allows you to modify:
  - Model to keep loaded
  - GPU offload
  - Start mode (daemon or gui)
  - Automation settings (auto-start daemon, notifications)

Press Enter to keep the current value for any setting.`,
	RunE: runConfigure,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the settings file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSettings()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var settingsInitForce bool

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		if config.FileExists(path) && !settingsInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveSettingsTo(path, models.NewSettings()); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	settingsInitCmd.Flags().BoolVarP(&settingsInitForce, "force", "f", false, "Overwrite an existing file")

	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	// Read the file itself so environment overrides are not persisted.
	s, err := config.LoadFileOrDefault(path, models.NewSettings)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.Normalize()

	changed, err := promptSettings(bufio.NewReader(os.Stdin), os.Stdout, s)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.SaveSettingsTo(path, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println("\nSettings updated.")
	if running, _, _ := GetInstanceStatus(); running {
		fmt.Println(render(styleHint, "The running tray picks up model changes automatically."))
	}
	return nil
}

// promptSettings walks through the editable settings and reports whether
// anything changed.
func promptSettings(reader *bufio.Reader, w io.Writer, s *models.Settings) (bool, error) {
	changed := false

	// Model
	fmt.Fprintf(w, "Model [%s]: ", s.Model)
	model := readLine(reader)
	if model != "" && model != s.Model {
		s.Model = model
		changed = true
	}

	// GPU offload
	fmt.Fprintf(w, "GPU offload (max, off or 0-1) [%s]: ", s.GPU)
	gpu := readLine(reader)
	if gpu != "" {
		if !isValidGPU(gpu) {
			return false, fmt.Errorf("invalid GPU offload: %s (expected max, off or a ratio between 0 and 1)", gpu)
		}
		if gpu != s.GPU {
			s.GPU = gpu
			changed = true
		}
	}

	// Start mode
	fmt.Fprintf(w, "Start mode (daemon or gui) [%s]: ", s.Mode)
	mode := strings.ToLower(readLine(reader))
	if mode != "" {
		if mode != models.ModeDaemon && mode != models.ModeDesktop {
			return false, fmt.Errorf("invalid start mode: %s (expected daemon or gui)", mode)
		}
		if mode != s.Mode {
			s.Mode = mode
			changed = true
		}
	}

	// Automation settings
	fmt.Fprintln(w, "\nAutomation settings:")

	newAutoStart := promptYesNoWithCurrent(reader, w, "Start the daemon when lmtray starts?", s.AutoStartDaemon)
	if newAutoStart != s.AutoStartDaemon {
		s.AutoStartDaemon = newAutoStart
		changed = true
	}

	newNotify := promptYesNoWithCurrent(reader, w, "Show desktop notifications?", s.Notifications)
	if newNotify != s.Notifications {
		s.Notifications = newNotify
		changed = true
	}

	return changed, nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, w io.Writer, prompt string, current bool) bool {
	currentStr := "no"
	if current {
		currentStr = "yes"
	}

	fmt.Fprintf(w, "  %s [%s]: ", prompt, currentStr)
	response := strings.ToLower(readLine(reader))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}

// isValidGPU accepts the values `lms load --gpu` understands.
func isValidGPU(v string) bool {
	switch strings.ToLower(v) {
	case "max", "off":
		return true
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f >= 0 && f <= 1
}
