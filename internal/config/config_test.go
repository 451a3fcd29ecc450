package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/deskgrid/internal/grid"
)

func writeConfig(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Zoom() != grid.ZoomNormal {
		t.Fatalf("expected normal zoom, got %s", cfg.Zoom())
	}
	if cfg.RescanInterval() != 30*time.Second {
		t.Fatalf("unexpected rescan interval %v", cfg.RescanInterval())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
	if res.Config.ZoomLevel != "normal" {
		t.Fatalf("expected default zoom_level, got %q", res.Config.ZoomLevel)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.UseDockStruts {
		t.Fatalf("expected use_dock_struts default true")
	}
}

func TestLoadFromPath_OverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path,
		"zoom_level: huge",
		"show_hidden: true",
		"desktop_dir: /srv/desk",
		"panel_margins:",
		"  top: 24",
		"screen_margins:",
		"  HDMI-1:",
		"    left: 40",
		"hotkeys:",
		"  refresh: Mod4-r",
		"logging:",
		"  level: debug",
		"display: \":1\"",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Zoom() != grid.ZoomHuge {
		t.Fatalf("expected huge zoom, got %s", cfg.Zoom())
	}
	if !cfg.ShowHidden {
		t.Fatalf("expected show_hidden true")
	}
	if dir, _ := cfg.ResolvedDesktopDir(); dir != "/srv/desk" {
		t.Fatalf("unexpected desktop dir %q", dir)
	}
	if got := cfg.MarginsFor("HDMI-1"); got != (grid.Margins{Top: 24, Left: 40}) {
		t.Fatalf("unexpected HDMI-1 margins %+v", got)
	}
	if got := cfg.MarginsFor("eDP-1"); got != (grid.Margins{Top: 24}) {
		t.Fatalf("unexpected eDP-1 margins %+v", got)
	}
	if cfg.Hotkeys.Refresh != "Mod4-r" || cfg.Hotkeys.ZoomIn != DefaultConfig().Hotkeys.ZoomIn {
		t.Fatalf("unexpected hotkeys %+v", cfg.Hotkeys)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
	if cfg.Display != ":1" {
		t.Fatalf("unexpected display %q", cfg.Display)
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "zoom: huge")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path,
		"show_hidden: false",
		"zoom_level: gigantic",
	)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "zoom_level" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected line 2, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected file position in error, got %q", err.Error())
	}
}

func TestLoadFromPath_NegativeMarginRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path,
		"screen_margins:",
		"  DP-2:",
		"    bottom: -3",
	)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "screen_margins.DP-2" {
		t.Fatalf("expected screen_margins.DP-2 validation error, got %v", err)
	}
}

func TestLoadFromPath_DuplicateHotkeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path,
		"hotkeys:",
		"  zoom_in: Mod4-z",
		"  zoom_out: Mod4-z",
	)

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected duplicate hotkey error")
	}
}

func TestLoadFromPath_IncludesMergeInOrder(t *testing.T) {
	dir := t.TempDir()
	confd := filepath.Join(dir, "conf.d")
	if err := os.MkdirAll(confd, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, filepath.Join(confd, "10-zoom.yaml"), "zoom_level: small", "panel_margins:", "  left: 8")
	writeConfig(t, filepath.Join(confd, "20-zoom.yaml"), "zoom_level: large")
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path,
		"include: conf.d",
		"panel_margins:",
		"  top: 30",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Zoom() != grid.ZoomLarge {
		t.Fatalf("expected later include to win, got %s", res.Config.Zoom())
	}
	if res.Config.PanelMargins != (grid.Margins{Top: 30, Left: 8}) {
		t.Fatalf("expected merged margins, got %+v", res.Config.PanelMargins)
	}
	if len(res.Files) != 3 || !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("unexpected files %v", res.Files)
	}

	_, src, err := Explain(res, "zoom_level")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasSuffix(src.File, "20-zoom.yaml") {
		t.Fatalf("expected zoom_level from 20-zoom.yaml, got %+v", src)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeConfig(t, a, "include: b.yaml")
	writeConfig(t, b, "include: a.yaml")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestExplain_DefaultsAndFileSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "rescan_interval_seconds: 5")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "rescan_interval_seconds")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 5 || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("unexpected explain result %v %+v", value, src)
	}

	value, src, err = Explain(res, "hotkeys.zoom_out")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != DefaultConfig().Hotkeys.ZoomOut || src.Kind != SourceDefault {
		t.Fatalf("unexpected explain result %v %+v", value, src)
	}

	if _, _, err := Explain(res, "panel_margins.middle"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.ZoomLevel = "small"
	cfg.ScreenMargins["DP-1"] = grid.Margins{Right: 12}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Zoom() != grid.ZoomSmall {
		t.Fatalf("unexpected zoom %s", res.Config.Zoom())
	}
	if res.Config.MarginsFor("DP-1").Right != 12 {
		t.Fatalf("expected DP-1 margins to survive, got %+v", res.Config.ScreenMargins)
	}
}

func TestSaveTo_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RescanIntervalSeconds = -1
	if err := cfg.SaveTo(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestResolvedDesktopDir_Fallbacks(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DESKTOP_DIR", "")

	cfg := DefaultConfig()
	dir, err := cfg.ResolvedDesktopDir()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dir != filepath.Join(home, "Desktop") {
		t.Fatalf("unexpected default desktop dir %q", dir)
	}

	t.Setenv("XDG_DESKTOP_DIR", "/data/desk")
	if dir, _ := cfg.ResolvedDesktopDir(); dir != "/data/desk" {
		t.Fatalf("expected XDG_DESKTOP_DIR, got %q", dir)
	}

	cfg.DesktopDir = "~/Schreibtisch"
	if dir, _ := cfg.ResolvedDesktopDir(); dir != filepath.Join(home, "Schreibtisch") {
		t.Fatalf("expected ~ expansion, got %q", dir)
	}

	if file, _ := cfg.ResolvedPositionsFile(); file != filepath.Join(home, ".config", "deskgrid", "positions.json") {
		t.Fatalf("unexpected positions file %q", file)
	}
}

func TestLoadWithSources_HonorsConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elsewhere.yaml")
	writeConfig(t, path, "zoom_level: huge")
	t.Setenv(ConfigEnv, path)

	res, err := LoadWithSources()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Zoom() != grid.ZoomHuge {
		t.Fatalf("unexpected zoom %s", res.Config.Zoom())
	}
	if len(res.Files) != 1 || !strings.HasSuffix(res.Files[0], "elsewhere.yaml") {
		t.Fatalf("unexpected files %v", res.Files)
	}
}
