// Package config handles loading and saving tally configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/tally/config.yaml
//   - Data:   ~/.local/share/tally/ (submitted records)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "tally"

// Forms that can be opened at startup.
const (
	FormTransaction = "transaction"
	FormAccount     = "account"
	FormCategories  = "categories"
)

// Directions accepted by ui.direction.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// SuggestConfig controls category suggestions for new transactions.
type SuggestConfig struct {
	Endpoint string        `yaml:"endpoint,omitempty"` // empty uses local fuzzy matching
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Limit    int           `yaml:"limit,omitempty"`
}

// UIConfig holds display preferences for the category trees and forms.
type UIConfig struct {
	Direction   string `yaml:"direction,omitempty"`
	Indicator   *bool  `yaml:"indicator,omitempty"`
	ExpandAll   bool   `yaml:"expand_all,omitempty"`
	OpenIcon    string `yaml:"open_icon,omitempty"`
	CloseIcon   string `yaml:"close_icon,omitempty"`
	DefaultForm string `yaml:"default_form,omitempty"`
}

// ShowIndicator reports whether the vertical depth guides are drawn.
func (u UIConfig) ShowIndicator() bool {
	return u.Indicator == nil || *u.Indicator
}

// Config is the top-level configuration for tally.
type Config struct {
	Catalog string        `yaml:"catalog,omitempty"`
	Output  string        `yaml:"output,omitempty"`
	Suggest SuggestConfig `yaml:"suggest,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Suggest: SuggestConfig{
			Timeout: 5 * time.Second,
			Limit:   3,
		},
		UI: UIConfig{
			Direction:   DirectionLTR,
			DefaultForm: FormTransaction,
		},
	}
}

// ConfigDir returns the XDG config directory for tally.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for tally.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.Catalog = expandHome(cfg.Catalog)
	cfg.Output = expandHome(cfg.Output)
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate rejects values the UI cannot honor.
func (c Config) Validate() error {
	var errs []error
	if d := c.UI.Direction; d != "" && d != DirectionLTR && d != DirectionRTL {
		errs = append(errs, fmt.Errorf("ui.direction must be %q or %q, got %q", DirectionLTR, DirectionRTL, d))
	}
	if f := c.UI.DefaultForm; f != "" && !IsForm(f) {
		errs = append(errs, fmt.Errorf("unknown ui.default_form %q", f))
	}
	if c.Suggest.Limit < 0 {
		errs = append(errs, fmt.Errorf("suggest.limit cannot be negative"))
	}
	if c.Suggest.Timeout < 0 {
		errs = append(errs, fmt.Errorf("suggest.timeout cannot be negative"))
	}
	return errors.Join(errs...)
}

// IsForm reports whether name is one of the startup forms.
func IsForm(name string) bool {
	return slices.Contains([]string{FormTransaction, FormAccount, FormCategories}, name)
}

// RTL reports whether trees render right to left.
func (c Config) RTL() bool {
	return strings.EqualFold(c.UI.Direction, DirectionRTL)
}

// OutputPath returns where submitted records are appended.
func (c Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	dir := DataDir()
	if dir == "" {
		return "submissions.jsonl"
	}
	return filepath.Join(dir, "submissions.jsonl")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
