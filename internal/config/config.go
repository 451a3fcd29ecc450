package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/deskgrid/internal/grid"
	"gopkg.in/yaml.v3"
)

// Hotkeys are the global shortcuts grabbed by the daemon. An empty value
// disables the binding.
type Hotkeys struct {
	ZoomIn  string `yaml:"zoom_in"`
	ZoomOut string `yaml:"zoom_out"`
	Refresh string `yaml:"refresh"`
}

// LoggingConfig configures the daemon logger.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`
}

// Config is the effective deskgrid configuration.
type Config struct {
	ZoomLevel     string `yaml:"zoom_level"`
	DesktopDir    string `yaml:"desktop_dir,omitempty"`
	PositionsFile string `yaml:"positions_file,omitempty"`
	ShowHidden    bool   `yaml:"show_hidden"`

	// UseDockStruts subtracts _NET_WM_STRUT_PARTIAL reservations of docks and
	// panels from each screen.
	UseDockStruts bool         `yaml:"use_dock_struts"`
	PanelMargins  grid.Margins `yaml:"panel_margins"`
	// ScreenMargins adds per-output margins on top of PanelMargins, keyed by
	// RandR output name.
	ScreenMargins map[string]grid.Margins `yaml:"screen_margins,omitempty"`

	RescanIntervalSeconds int  `yaml:"rescan_interval_seconds"`
	LegacyLayoutQuirks    bool `yaml:"legacy_layout_quirks"`

	Hotkeys Hotkeys       `yaml:"hotkeys"`
	Logging LoggingConfig `yaml:"logging"`

	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		ZoomLevel:             grid.DefaultZoomLevel.String(),
		UseDockStruts:         true,
		ScreenMargins:         make(map[string]grid.Margins),
		RescanIntervalSeconds: 30,
		Hotkeys: Hotkeys{
			ZoomIn:  "Mod4-Mod1-equal",
			ZoomOut: "Mod4-Mod1-minus",
			Refresh: "Mod4-Mod1-d",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Zoom returns the parsed zoom level.
func (c *Config) Zoom() grid.ZoomLevel {
	level, err := grid.ParseZoomLevel(c.ZoomLevel)
	if err != nil {
		return grid.DefaultZoomLevel
	}
	return level
}

// RescanInterval returns the safety-net rescan period. Zero disables it.
func (c *Config) RescanInterval() time.Duration {
	if c.RescanIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RescanIntervalSeconds) * time.Second
}

// SlogLevel maps logging.level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MarginsFor returns the configured margins for output: panel_margins plus
// any screen_margins entry.
func (c *Config) MarginsFor(output string) grid.Margins {
	m := c.PanelMargins
	if extra, ok := c.ScreenMargins[output]; ok {
		m.Top += extra.Top
		m.Bottom += extra.Bottom
		m.Left += extra.Left
		m.Right += extra.Right
	}
	return m
}

// ResolvedDesktopDir returns desktop_dir with ~ expanded. When unset it falls
// back to $XDG_DESKTOP_DIR, then ~/Desktop.
func (c *Config) ResolvedDesktopDir() (string, error) {
	dir := strings.TrimSpace(c.DesktopDir)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv("XDG_DESKTOP_DIR"))
	}
	if dir == "" {
		dir = "~/Desktop"
	}
	return expandHome(dir)
}

// ResolvedPositionsFile returns positions_file with ~ expanded, defaulting to
// ~/.config/deskgrid/positions.json.
func (c *Config) ResolvedPositionsFile() (string, error) {
	path := strings.TrimSpace(c.PositionsFile)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "deskgrid", "positions.json"), nil
	}
	return expandHome(path)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	if len(save.ScreenMargins) == 0 {
		save.ScreenMargins = nil
	}
	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := grid.ParseZoomLevel(c.ZoomLevel); err != nil {
		return &ValidationError{Path: "zoom_level", Err: fmt.Errorf("zoom_level must be one of: %s", strings.Join(grid.ZoomLevelNames(), ", "))}
	}
	if c.RescanIntervalSeconds < 0 {
		return &ValidationError{Path: "rescan_interval_seconds", Err: fmt.Errorf("rescan_interval_seconds must be >= 0")}
	}
	if err := validateMargins(c.PanelMargins); err != nil {
		return &ValidationError{Path: "panel_margins", Err: err}
	}
	for _, name := range sortedKeys(c.ScreenMargins) {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "screen_margins", Err: fmt.Errorf("screen_margins contains an empty output name")}
		}
		if err := validateMargins(c.ScreenMargins[name]); err != nil {
			return &ValidationError{Path: "screen_margins." + name, Err: err}
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("logging.level must be one of: debug, info, warn, error")}
	}
	if dup := duplicateHotkey(c.Hotkeys); dup != "" {
		return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("hotkey %q is bound more than once", dup)}
	}
	return nil
}

func validateMargins(m grid.Margins) error {
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return fmt.Errorf("margin values must be >= 0")
	}
	return nil
}

func duplicateHotkey(h Hotkeys) string {
	seen := make(map[string]bool)
	for _, key := range []string{h.ZoomIn, h.ZoomOut, h.Refresh} {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if seen[key] {
			return key
		}
		seen[key] = true
	}
	return ""
}
