// Package settings persists user preferences for the screenshare CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// CapturePreset defines a named capture quality preset
type CapturePreset struct {
	Name        string
	Width       int
	Height      int
	FrameRate   int
	Description string // short description for UI
}

// Capture presets from lowest to highest
var CapturePresets = []CapturePreset{
	{Name: "Low", Width: 1280, Height: 720, FrameRate: 15, Description: "720p / 15 fps"},
	{Name: "Medium", Width: 1920, Height: 1080, FrameRate: 30, Description: "1080p / 30 fps"},
	{Name: "High", Width: 2560, Height: 1440, FrameRate: 30, Description: "1440p / 30 fps"},
	{Name: "Ultra", Width: 3840, Height: 2160, FrameRate: 60, Description: "4K / 60 fps"},
}

// DefaultPresetIndex returns the index of the default preset (Medium)
func DefaultPresetIndex() int {
	return 1 // Medium
}

// PresetByName finds a capture preset by name (case-insensitive).
// Returns the default preset if the name is unknown.
func PresetByName(name string) CapturePreset {
	name = strings.ToLower(name)
	for _, p := range CapturePresets {
		if strings.ToLower(p.Name) == name {
			return p
		}
	}
	return CapturePresets[DefaultPresetIndex()]
}

// UserSettings holds persistable user preferences
type UserSettings struct {
	SignalURL  string `json:"signalUrl"`
	Preset     int    `json:"preset"`
	FrameRate  int    `json:"frameRate"`
	ShareAudio bool   `json:"shareAudio"`
}

// Manager handles loading and saving user settings
type Manager struct {
	path     string
	settings UserSettings
}

// NewManager creates a settings manager with the default config path
func NewManager() (*Manager, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return &Manager{path: path}, nil
}

// getConfigPath returns the config file path.
// Uses XDG_CONFIG_HOME if set, otherwise the OS user config dir.
func getConfigPath() (string, error) {
	var configDir string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "screenshare")
	} else {
		userConfigDir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(userConfigDir, "screenshare")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// DefaultSettings returns the default settings
func DefaultSettings() UserSettings {
	return UserSettings{
		Preset:    DefaultPresetIndex(),
		FrameRate: CapturePresets[DefaultPresetIndex()].FrameRate,
	}
}

// Load reads settings from the config file.
// Returns default settings if file doesn't exist or is invalid.
func (m *Manager) Load() (UserSettings, error) {
	m.settings = DefaultSettings()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist - use defaults, not an error
			return m.settings, nil
		}
		return m.settings, err
	}

	if err := json.Unmarshal(data, &m.settings); err != nil {
		// Invalid JSON - use defaults
		m.settings = DefaultSettings()
		return m.settings, nil
	}

	m.validate()

	return m.settings, nil
}

// validate ensures loaded settings are within valid ranges
func (m *Manager) validate() {
	if m.settings.Preset < 0 || m.settings.Preset >= len(CapturePresets) {
		m.settings.Preset = DefaultPresetIndex()
	}
	if m.settings.FrameRate < 1 || m.settings.FrameRate > 120 {
		m.settings.FrameRate = CapturePresets[m.settings.Preset].FrameRate
	}
}

// Save writes current settings to the config file
func (m *Manager) Save(settings UserSettings) error {
	m.settings = settings

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.path, data, 0644)
}

// Settings returns the current settings
func (m *Manager) Settings() UserSettings {
	return m.settings
}
