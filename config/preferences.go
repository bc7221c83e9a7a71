package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemePlain Theme = "plain"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemePlain:
		return true
	}
	return false
}

// Preferences are the player's terminal settings. They are loaded and saved
// explicitly by the caller and passed to whatever needs them.
type Preferences struct {
	Theme      Theme  `yaml:"theme"`
	APIBaseURL string `yaml:"api_base_url"`
	Email      string `yaml:"email,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:      ThemeDark,
		APIBaseURL: "http://localhost:8000",
	}
}

// DefaultPreferencesPath is <user config dir>/guessr/preferences.yaml.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "guessr", "preferences.yaml"), nil
}

// LoadPreferences reads path. A missing file yields the defaults.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("parse preferences %s: %w", path, err)
	}
	if !prefs.Theme.Valid() {
		prefs.Theme = DefaultPreferences().Theme
	}
	if prefs.APIBaseURL == "" {
		prefs.APIBaseURL = DefaultPreferences().APIBaseURL
	}
	return prefs, nil
}

// SavePreferences writes prefs to path, creating parent directories.
func SavePreferences(path string, prefs Preferences) error {
	if !prefs.Theme.Valid() {
		return fmt.Errorf("unknown theme %q", prefs.Theme)
	}
	raw, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return os.Rename(tmp, path)
}
