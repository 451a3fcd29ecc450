package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

type fakeDaemon struct {
	zoom    string
	calls   []string
	offline bool
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.offline {
		return nil, errors.New("deskgrid daemon is not running")
	}
	return &ipc.StatusData{DaemonRunning: true, Zoom: f.zoom, Items: 2, Screens: 1}, nil
}

func (f *fakeDaemon) GetLayout() (*ipc.LayoutData, error) {
	return &iconview.Layout{Zoom: f.zoom, Items: 2, Screens: []iconview.ScreenLayout{testScreen()}}, nil
}

func (f *fakeDaemon) ZoomIn() (string, error) {
	f.calls = append(f.calls, "zoom_in")
	f.zoom = "large"
	return f.zoom, nil
}

func (f *fakeDaemon) ZoomOut() (string, error) {
	f.calls = append(f.calls, "zoom_out")
	f.zoom = "small"
	return f.zoom, nil
}

func (f *fakeDaemon) Refresh() error {
	f.calls = append(f.calls, "refresh")
	return nil
}

func (f *fakeDaemon) Rescan() (*ipc.RescanData, error) {
	f.calls = append(f.calls, "rescan")
	return &ipc.RescanData{Inserted: 1}, nil
}

func (f *fakeDaemon) Reload() error {
	f.calls = append(f.calls, "reload")
	return nil
}

func testScreen() iconview.ScreenLayout {
	return iconview.ScreenLayout{
		Name: "eDP-1", Primary: true, Valid: true,
		Geometry:  grid.Rect{Width: 1920, Height: 1080},
		MaxColumn: 3, MaxRow: 2,
		Items: []iconview.ItemLayout{
			{URI: "file:///home/u/Desktop/notes.md", Cell: grid.Cell{Column: 0, Row: 0}},
			{URI: "file:///home/u/Desktop/.profile", Cell: grid.Cell{Column: 2, Row: 1}},
		},
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs the returned command once.
func step(t *testing.T, m model, msg tea.Msg) (model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	if cmd == nil {
		return nm, nil
	}
	return nm, cmd()
}

func TestModel_KeysDriveDaemon(t *testing.T) {
	d := &fakeDaemon{zoom: "normal"}
	m := newModel("", d)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	for _, k := range []string{"+", "-", "r", "s"} {
		var msg tea.Msg
		m, msg = step(t, m, keyPress(k))
		action, ok := msg.(actionMsg)
		if !ok {
			t.Fatalf("key %q: expected actionMsg, got %T", k, msg)
		}
		if action.err != nil {
			t.Fatalf("key %q: %v", k, action.err)
		}
		m, msg = step(t, m, action)
		if _, ok := msg.(layoutMsg); !ok {
			t.Fatalf("expected a layout fetch after %q, got %T", k, msg)
		}
	}

	want := "zoom_in zoom_out refresh rescan"
	if got := strings.Join(d.calls, " "); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
	if m.message != "rescan: -0 +1" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newModel("", &fakeDaemon{zoom: "normal"})
	_, msg := step(t, m, keyPress("q"))
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestModel_LayoutAndView(t *testing.T) {
	d := &fakeDaemon{zoom: "normal"}
	m := newModel("", d)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = step(t, m, fetchLayout(d)())

	if !m.connected || m.status.Zoom != "normal" {
		t.Fatalf("expected connected model, got connected=%v status=%+v", m.connected, m.status)
	}
	s, ok := m.selectedScreen()
	if !ok || s.Name != "eDP-1" {
		t.Fatalf("expected eDP-1 to be selected, got %+v", s)
	}
	view := m.View()
	for _, want := range []string{"daemon connected", "zoom:normal", "eDP-1", "notes.md"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view is missing %q:\n%s", want, view)
		}
	}
}

func TestModel_OfflineDaemon(t *testing.T) {
	d := &fakeDaemon{offline: true}
	m := newModel("", d)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	m, _ = step(t, m, fetchLayout(d)())

	if m.connected {
		t.Fatalf("expected model to be disconnected")
	}
	if !strings.Contains(m.View(), "daemon not running") {
		t.Fatalf("expected offline notice in view")
	}
}

func TestRenderGrid_MarksOccupiedCells(t *testing.T) {
	out := renderGrid(testScreen(), 0, 0)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "N") || !strings.Contains(lines[1], "P") {
		t.Fatalf("expected item initials in grid:\n%s", out)
	}

	clipped := renderGrid(testScreen(), 2*cellWidth, 1)
	if strings.Count(clipped, "\n") != 0 {
		t.Fatalf("expected a single clipped row, got:\n%s", clipped)
	}

	off := testScreen()
	off.Valid = false
	if !strings.Contains(renderGrid(off, 0, 0), "not connected") {
		t.Fatalf("expected notice for detached screen")
	}
}

func TestSettingsForm_Apply(t *testing.T) {
	cfg := config.DefaultConfig()
	f := newSettingsForm(cfg, 80)
	f.fZoomLevel = "huge"
	f.fShowHidden = true
	f.fMarginTop = "32"
	f.fRescan = "0"

	out, err := f.apply(cfg)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Zoom() != grid.ZoomHuge || !out.ShowHidden || out.PanelMargins.Top != 32 || out.RescanInterval() != 0 {
		t.Fatalf("unexpected config %+v", out)
	}
	if cfg.ZoomLevel != "normal" {
		t.Fatalf("apply must not modify its input")
	}

	f.fMarginLeft = "-4"
	if _, err := f.apply(cfg); err == nil || !strings.Contains(err.Error(), "left margin") {
		t.Fatalf("expected left margin error, got %v", err)
	}
}

func TestModel_SaveSettingsWritesConfigAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	d := &fakeDaemon{zoom: "normal"}
	m := newModel(path, d)
	m.cfg = config.DefaultConfig()

	form := newSettingsForm(m.cfg, 80)
	form.fZoomLevel = "small"
	msg := m.saveSettings(form)()
	saved, ok := msg.(savedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("unexpected save result %#v", msg)
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Zoom() != grid.ZoomSmall {
		t.Fatalf("expected saved zoom, got %s", res.Config.Zoom())
	}

	_, next := step(t, m, saved)
	if action, ok := next.(actionMsg); !ok || action.err != nil {
		t.Fatalf("expected reload action, got %#v", next)
	}
	if strings.Join(d.calls, " ") != "reload" {
		t.Fatalf("expected daemon reload, calls %v", d.calls)
	}
}
