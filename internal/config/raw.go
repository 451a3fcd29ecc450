package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawMargins struct {
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

type RawHotkeys struct {
	ZoomIn  *string `yaml:"zoom_in"`
	ZoomOut *string `yaml:"zoom_out"`
	Refresh *string `yaml:"refresh"`
}

type RawLogging struct {
	Level *string `yaml:"level"`
}

// RawConfig mirrors Config with optional fields so that layered files only
// override what they set.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	ZoomLevel     *string `yaml:"zoom_level"`
	DesktopDir    *string `yaml:"desktop_dir"`
	PositionsFile *string `yaml:"positions_file"`
	ShowHidden    *bool   `yaml:"show_hidden"`

	UseDockStruts *bool                 `yaml:"use_dock_struts"`
	PanelMargins  *RawMargins           `yaml:"panel_margins"`
	ScreenMargins map[string]RawMargins `yaml:"screen_margins"`

	RescanIntervalSeconds *int  `yaml:"rescan_interval_seconds"`
	LegacyLayoutQuirks    *bool `yaml:"legacy_layout_quirks"`

	Hotkeys *RawHotkeys `yaml:"hotkeys"`
	Logging *RawLogging `yaml:"logging"`

	Display    *string `yaml:"display"`
	XAuthority *string `yaml:"xauthority"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.ZoomLevel != nil {
		out.ZoomLevel = overlay.ZoomLevel
	}
	if overlay.DesktopDir != nil {
		out.DesktopDir = overlay.DesktopDir
	}
	if overlay.PositionsFile != nil {
		out.PositionsFile = overlay.PositionsFile
	}
	if overlay.ShowHidden != nil {
		out.ShowHidden = overlay.ShowHidden
	}
	if overlay.UseDockStruts != nil {
		out.UseDockStruts = overlay.UseDockStruts
	}
	if overlay.PanelMargins != nil {
		base := RawMargins{}
		if out.PanelMargins != nil {
			base = *out.PanelMargins
		}
		merged := mergeRawMargins(base, *overlay.PanelMargins)
		out.PanelMargins = &merged
	}
	if overlay.ScreenMargins != nil {
		next := make(map[string]RawMargins, len(out.ScreenMargins)+len(overlay.ScreenMargins))
		for name, m := range out.ScreenMargins {
			next[name] = m
		}
		for name, m := range overlay.ScreenMargins {
			next[name] = mergeRawMargins(next[name], m)
		}
		out.ScreenMargins = next
	}
	if overlay.RescanIntervalSeconds != nil {
		out.RescanIntervalSeconds = overlay.RescanIntervalSeconds
	}
	if overlay.LegacyLayoutQuirks != nil {
		out.LegacyLayoutQuirks = overlay.LegacyLayoutQuirks
	}
	if overlay.Hotkeys != nil {
		base := RawHotkeys{}
		if out.Hotkeys != nil {
			base = *out.Hotkeys
		}
		if overlay.Hotkeys.ZoomIn != nil {
			base.ZoomIn = overlay.Hotkeys.ZoomIn
		}
		if overlay.Hotkeys.ZoomOut != nil {
			base.ZoomOut = overlay.Hotkeys.ZoomOut
		}
		if overlay.Hotkeys.Refresh != nil {
			base.Refresh = overlay.Hotkeys.Refresh
		}
		out.Hotkeys = &base
	}
	if overlay.Logging != nil {
		base := RawLogging{}
		if out.Logging != nil {
			base = *out.Logging
		}
		if overlay.Logging.Level != nil {
			base.Level = overlay.Logging.Level
		}
		out.Logging = &base
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}

	return out
}

func mergeRawMargins(base RawMargins, overlay RawMargins) RawMargins {
	out := base
	if overlay.Top != nil {
		out.Top = overlay.Top
	}
	if overlay.Bottom != nil {
		out.Bottom = overlay.Bottom
	}
	if overlay.Left != nil {
		out.Left = overlay.Left
	}
	if overlay.Right != nil {
		out.Right = overlay.Right
	}
	return out
}
