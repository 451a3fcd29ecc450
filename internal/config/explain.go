package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/deskgrid/internal/grid"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	zoom_level
//	desktop_dir
//	positions_file
//	show_hidden
//	use_dock_struts
//	panel_margins.top
//	screen_margins.<output>.left
//	rescan_interval_seconds
//	legacy_layout_quirks
//	hotkeys.zoom_in
//	logging.level
//	display
//	xauthority
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "zoom_level":
		return scalar(cfg.ZoomLevel)
	case "desktop_dir":
		dir, err := cfg.ResolvedDesktopDir()
		if err != nil {
			return nil, err
		}
		return scalar(dir)
	case "positions_file":
		file, err := cfg.ResolvedPositionsFile()
		if err != nil {
			return nil, err
		}
		return scalar(file)
	case "show_hidden":
		return scalar(cfg.ShowHidden)
	case "use_dock_struts":
		return scalar(cfg.UseDockStruts)
	case "rescan_interval_seconds":
		return scalar(cfg.RescanIntervalSeconds)
	case "legacy_layout_quirks":
		return scalar(cfg.LegacyLayoutQuirks)
	case "display":
		return scalar(cfg.Display)
	case "xauthority":
		return scalar(cfg.XAuthority)
	case "panel_margins":
		if len(parts) == 1 {
			return cfg.PanelMargins, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return marginField(cfg.PanelMargins, parts[1], path)
	case "screen_margins":
		if len(parts) == 1 {
			return cfg.ScreenMargins, nil
		}
		name := parts[1]
		margins, ok := cfg.ScreenMargins[name]
		if !ok {
			return nil, fmt.Errorf("unknown screen_margins entry %q", name)
		}
		if len(parts) == 2 {
			return margins, nil
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return marginField(margins, parts[2], path)
	case "hotkeys":
		if len(parts) == 1 {
			return cfg.Hotkeys, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "zoom_in":
			return cfg.Hotkeys.ZoomIn, nil
		case "zoom_out":
			return cfg.Hotkeys.ZoomOut, nil
		case "refresh":
			return cfg.Hotkeys.Refresh, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "logging":
		if len(parts) == 1 {
			return cfg.Logging, nil
		}
		if len(parts) == 2 && parts[1] == "level" {
			return cfg.Logging.Level, nil
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

func marginField(m grid.Margins, field string, path string) (any, error) {
	switch field {
	case "top":
		return m.Top, nil
	case "bottom":
		return m.Bottom, nil
	case "left":
		return m.Left, nil
	case "right":
		return m.Right, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
