package config

import (
	"fmt"
	"sort"

	"github.com/1broseidon/deskgrid/internal/grid"
)

// ValidationError points at the offending YAML path and, when known, the
// file position it was read from.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.ZoomLevel != nil {
		cfg.ZoomLevel = *raw.ZoomLevel
	}
	if raw.DesktopDir != nil {
		cfg.DesktopDir = *raw.DesktopDir
	}
	if raw.PositionsFile != nil {
		cfg.PositionsFile = *raw.PositionsFile
	}
	if raw.ShowHidden != nil {
		cfg.ShowHidden = *raw.ShowHidden
	}
	if raw.UseDockStruts != nil {
		cfg.UseDockStruts = *raw.UseDockStruts
	}
	if raw.PanelMargins != nil {
		cfg.PanelMargins = applyRawMargins(cfg.PanelMargins, *raw.PanelMargins)
	}
	for _, name := range sortedKeys(raw.ScreenMargins) {
		cfg.ScreenMargins[name] = applyRawMargins(grid.Margins{}, raw.ScreenMargins[name])
	}
	if raw.RescanIntervalSeconds != nil {
		cfg.RescanIntervalSeconds = *raw.RescanIntervalSeconds
	}
	if raw.LegacyLayoutQuirks != nil {
		cfg.LegacyLayoutQuirks = *raw.LegacyLayoutQuirks
	}
	if raw.Hotkeys != nil {
		if raw.Hotkeys.ZoomIn != nil {
			cfg.Hotkeys.ZoomIn = *raw.Hotkeys.ZoomIn
		}
		if raw.Hotkeys.ZoomOut != nil {
			cfg.Hotkeys.ZoomOut = *raw.Hotkeys.ZoomOut
		}
		if raw.Hotkeys.Refresh != nil {
			cfg.Hotkeys.Refresh = *raw.Hotkeys.Refresh
		}
	}
	if raw.Logging != nil && raw.Logging.Level != nil {
		cfg.Logging.Level = *raw.Logging.Level
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}

	return cfg, nil
}

func applyRawMargins(base grid.Margins, raw RawMargins) grid.Margins {
	return grid.Margins{
		Top:    derefInt(raw.Top, base.Top),
		Bottom: derefInt(raw.Bottom, base.Bottom),
		Left:   derefInt(raw.Left, base.Left),
		Right:  derefInt(raw.Right, base.Right),
	}
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
