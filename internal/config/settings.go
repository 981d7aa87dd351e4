package config

import (
	"github.com/lmtray/lmtray/internal/models"
)

// LoadSettings loads the global settings from <config home>/settings.yaml.
// If the file doesn't exist, returns default settings. Environment overrides
// are applied on top.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom loads settings from an explicit path of any supported format.
func LoadSettingsFrom(path string) (*models.Settings, error) {
	s, err := LoadFileOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(s, osLookup); err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}

// SaveSettings saves the global settings to <config home>/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// SaveSettingsTo saves settings to path in the format given by its extension.
func SaveSettingsTo(path string, settings *models.Settings) error {
	return SaveFile(path, settings)
}
