package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

type fakeDaemon struct {
	zoom     string
	layout   ipc.LayoutData
	refresh  int
	rescans  int
	moves    []ipc.MoveItemPayload
	groups   []ipc.MoveItemsPayload
	placed   []string
	down     bool
	moveFail error
}

var errDown = errors.New("daemon not running")

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		zoom: "normal",
		layout: iconview.Layout{
			Zoom:     "normal",
			CellSize: grid.Size{Width: 106, Height: 111},
			Items:    3,
			Floating: []string{"file:///home/u/Desktop/new.txt"},
			Screens: []iconview.ScreenLayout{
				{
					Name: "eDP-1", Primary: true, Valid: true, MaxColumn: 17, MaxRow: 8,
					Geometry: grid.Rect{Width: 1920, Height: 1080},
					Items: []iconview.ItemLayout{
						{URI: "file:///home/u/Desktop/a.txt", Cell: grid.Cell{}, Position: grid.Point{}},
					},
				},
				{
					Name: "HDMI-1", Valid: true, MaxColumn: 11, MaxRow: 8,
					Geometry: grid.Rect{X: 1920, Width: 1280, Height: 1024},
					Items: []iconview.ItemLayout{
						{URI: "file:///home/u/Desktop/b.txt", Cell: grid.Cell{Column: 2, Row: 3}, Position: grid.Point{X: 2132, Y: 333}},
					},
				},
			},
		},
	}
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.down {
		return nil, errDown
	}
	return &ipc.StatusData{DaemonRunning: true, Zoom: f.zoom, Screens: 2, Items: 3, Floating: 1}, nil
}

func (f *fakeDaemon) GetMonitors() (*ipc.MonitorsData, error) {
	return &ipc.MonitorsData{}, nil
}

func (f *fakeDaemon) GetLayout() (*ipc.LayoutData, error) {
	if f.down {
		return nil, errDown
	}
	l := f.layout
	return &l, nil
}

func (f *fakeDaemon) SetZoom(level string) (string, error) {
	l, err := grid.ParseZoomLevel(level)
	if err != nil {
		return "", err
	}
	f.zoom = l.String()
	return f.zoom, nil
}

func (f *fakeDaemon) ZoomIn() (string, error)  { f.zoom = "large"; return f.zoom, nil }
func (f *fakeDaemon) ZoomOut() (string, error) { f.zoom = "small"; return f.zoom, nil }
func (f *fakeDaemon) Refresh() error           { f.refresh++; return nil }

func (f *fakeDaemon) Rescan() (*ipc.RescanData, error) {
	f.rescans++
	return &ipc.RescanData{Inserted: 1}, nil
}

func (f *fakeDaemon) MoveItem(req ipc.MoveItemPayload) (*ipc.MoveItemData, error) {
	if f.moveFail != nil {
		return nil, f.moveFail
	}
	f.moves = append(f.moves, req)
	return &ipc.MoveItemData{
		URI:      "file:///home/u/Desktop/" + req.Item,
		Cell:     grid.Cell{Column: req.Column, Row: req.Row},
		Position: grid.Point{X: req.Column * 106, Y: req.Row * 111},
	}, nil
}

func (f *fakeDaemon) MoveItems(req ipc.MoveItemsPayload) (*ipc.MoveItemsData, error) {
	if f.moveFail != nil {
		return nil, f.moveFail
	}
	f.groups = append(f.groups, req)
	dc, dr := req.ToColumn-req.FromColumn, req.ToRow-req.FromRow
	out := &ipc.MoveItemsData{}
	for i, item := range req.Items {
		cell := grid.Cell{Column: dc, Row: dr + i}
		out.Items = append(out.Items, iconview.Placement{
			Screen: req.ToScreen,
			ItemLayout: iconview.ItemLayout{
				URI:  "file:///home/u/Desktop/" + item,
				Cell: cell,
			},
		})
	}
	return out, nil
}

// PlaceItem resolves refs against the layout; floating items land on the
// first free cell of the primary screen.
func (f *fakeDaemon) PlaceItem(item string) (*ipc.PlacementData, error) {
	if f.down {
		return nil, errDown
	}
	f.placed = append(f.placed, item)
	matches := func(uri string) bool {
		return item == uri || item == strings.TrimPrefix(uri, "file://") || item == desktopdir.DisplayName(uri)
	}
	for _, sc := range f.layout.Screens {
		for _, it := range sc.Items {
			if matches(it.URI) {
				return &ipc.PlacementData{Screen: sc.Name, ItemLayout: it}, nil
			}
		}
	}
	for _, uri := range f.layout.Floating {
		if matches(uri) {
			return &ipc.PlacementData{Screen: "eDP-1", ItemLayout: iconview.ItemLayout{
				URI:      uri,
				Cell:     grid.Cell{Row: 1},
				Position: grid.Point{Y: 111},
				Rect:     grid.Rect{X: 10, Y: 116, Width: 96, Height: 106},
			}}, nil
		}
	}
	return nil, fmt.Errorf("unknown item %q", item)
}

func (f *fakeDaemon) ItemAt(req ipc.ItemAtPayload) (string, error) {
	for _, sc := range f.layout.Screens {
		if sc.Name != req.Screen {
			continue
		}
		for _, it := range sc.Items {
			if it.Cell == (grid.Cell{Column: req.Column, Row: req.Row}) {
				return it.URI, nil
			}
		}
		return "", nil
	}
	return "", fmt.Errorf("unknown screen %q", req.Screen)
}

func TestListScreens(t *testing.T) {
	s := NewServer(newFakeDaemon(), nil)
	_, out, err := s.handleListScreens(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("list_screens: %v", err)
	}
	if len(out.Screens) != 2 || out.Screens[1].Name != "HDMI-1" || out.Screens[1].Items != 1 {
		t.Fatalf("unexpected screens %+v", out.Screens)
	}
	if out.CellSize.Width != 106 || !out.Screens[0].Primary {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestListIcons_FilterByScreen(t *testing.T) {
	s := NewServer(newFakeDaemon(), nil)

	_, all, err := s.handleListIcons(context.Background(), nil, ListIconsInput{})
	if err != nil {
		t.Fatalf("list_icons: %v", err)
	}
	if len(all.Icons) != 2 || fmt.Sprint(all.Floating) != "[new.txt]" {
		t.Fatalf("unexpected icons %+v", all)
	}

	_, hdmi, err := s.handleListIcons(context.Background(), nil, ListIconsInput{Screen: "HDMI-1"})
	if err != nil {
		t.Fatalf("list_icons: %v", err)
	}
	if len(hdmi.Icons) != 1 || hdmi.Icons[0].Name != "b.txt" || hdmi.Floating != nil {
		t.Fatalf("unexpected HDMI-1 icons %+v", hdmi)
	}

	if _, _, err := s.handleListIcons(context.Background(), nil, ListIconsInput{Screen: "DP-7"}); err == nil {
		t.Fatalf("expected error for unknown screen")
	}
}

func TestGetIconPosition(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d, nil)

	for _, ref := range []string{"b.txt", "/home/u/Desktop/b.txt", "file:///home/u/Desktop/b.txt"} {
		_, icon, err := s.handleGetIconPosition(context.Background(), nil, GetIconPositionInput{Item: ref})
		if err != nil {
			t.Fatalf("get_icon_position(%q): %v", ref, err)
		}
		if icon.Screen != "HDMI-1" || icon.Column != 2 || icon.Row != 3 || icon.X != 2132 {
			t.Fatalf("unexpected icon for %q: %+v", ref, icon)
		}
	}

	_, icon, err := s.handleGetIconPosition(context.Background(), nil, GetIconPositionInput{Item: "new.txt"})
	if err != nil {
		t.Fatalf("get_icon_position(new.txt): %v", err)
	}
	if icon.Screen != "eDP-1" || icon.Row != 1 || icon.Rect != (grid.Rect{X: 10, Y: 116, Width: 96, Height: 106}) {
		t.Fatalf("floating icon should be placed, got %+v", icon)
	}

	if _, _, err := s.handleGetIconPosition(context.Background(), nil, GetIconPositionInput{Item: "zzz"}); err == nil {
		t.Fatalf("expected unknown icon error")
	}
	if _, _, err := s.handleGetIconPosition(context.Background(), nil, GetIconPositionInput{Item: " "}); err == nil {
		t.Fatalf("expected error for empty item")
	}
	if len(d.placed) != 5 {
		t.Fatalf("expected 5 daemon lookups, got %d", len(d.placed))
	}
}

func TestMoveIcons(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d, nil)

	_, out, err := s.handleMoveIcons(context.Background(), nil, MoveIconsInput{
		Items:      []string{"a.txt", "b.txt"},
		FromScreen: "eDP-1",
		ToScreen:   "HDMI-1", ToColumn: 2, ToRow: 1,
	})
	if err != nil {
		t.Fatalf("move_icons: %v", err)
	}
	if len(out.Icons) != 2 || out.Icons[1].Name != "b.txt" || out.Icons[1].Screen != "HDMI-1" || out.Icons[1].Row != 2 {
		t.Fatalf("unexpected icons %+v", out.Icons)
	}

	bad := []MoveIconsInput{
		{FromScreen: "eDP-1", ToScreen: "HDMI-1"},
		{Items: []string{"a.txt"}, ToScreen: "HDMI-1"},
		{Items: []string{"a.txt"}, FromScreen: "eDP-1", ToScreen: "HDMI-1", ToRow: -2},
	}
	for _, in := range bad {
		if _, _, err := s.handleMoveIcons(context.Background(), nil, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
	if len(d.groups) != 1 {
		t.Fatalf("invalid requests must not reach the daemon, got %d", len(d.groups))
	}
}

func TestIconAt(t *testing.T) {
	s := NewServer(newFakeDaemon(), nil)

	_, out, err := s.handleIconAt(context.Background(), nil, IconAtInput{Screen: "HDMI-1", Column: 2, Row: 3})
	if err != nil {
		t.Fatalf("icon_at: %v", err)
	}
	if !out.Occupied || out.Name != "b.txt" {
		t.Fatalf("unexpected result %+v", out)
	}

	_, out, err = s.handleIconAt(context.Background(), nil, IconAtInput{Screen: "HDMI-1", Column: 5})
	if err != nil || out.Occupied || out.URI != "" {
		t.Fatalf("free cell: %+v err=%v", out, err)
	}
	if _, _, err := s.handleIconAt(context.Background(), nil, IconAtInput{Screen: "DP-7"}); err == nil {
		t.Fatalf("expected error for unknown screen")
	}
	if _, _, err := s.handleIconAt(context.Background(), nil, IconAtInput{Screen: "HDMI-1", Column: -1}); err == nil {
		t.Fatalf("expected error for negative column")
	}
}

func TestSetZoom(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d, nil)

	tests := []struct {
		level string
		want  string
	}{
		{"huge", "huge"},
		{"in", "large"},
		{"OUT", "small"},
	}
	for _, tt := range tests {
		_, out, err := s.handleSetZoom(context.Background(), nil, SetZoomInput{Level: tt.level})
		if err != nil {
			t.Fatalf("set_zoom(%q): %v", tt.level, err)
		}
		if out.Zoom != tt.want {
			t.Errorf("set_zoom(%q) = %q, want %q", tt.level, out.Zoom, tt.want)
		}
	}

	if _, _, err := s.handleSetZoom(context.Background(), nil, SetZoomInput{Level: "gigantic"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, _, err := s.handleSetZoom(context.Background(), nil, SetZoomInput{}); err == nil {
		t.Fatalf("expected error for empty level")
	}
}

func TestMoveIcon(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d, nil)

	_, icon, err := s.handleMoveIcon(context.Background(), nil, MoveIconInput{Item: "a.txt", Screen: "HDMI-1", Column: 4, Row: 1})
	if err != nil {
		t.Fatalf("move_icon: %v", err)
	}
	if icon.Name != "a.txt" || icon.Screen != "HDMI-1" || icon.Column != 4 || icon.Y != 111 {
		t.Fatalf("unexpected icon %+v", icon)
	}
	if len(d.moves) != 1 || d.moves[0].Screen != "HDMI-1" {
		t.Fatalf("unexpected moves %+v", d.moves)
	}

	bad := []MoveIconInput{
		{Screen: "HDMI-1"},
		{Item: "a.txt"},
		{Item: "a.txt", Screen: "HDMI-1", Column: -1},
	}
	for _, in := range bad {
		if _, _, err := s.handleMoveIcon(context.Background(), nil, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
	if len(d.moves) != 1 {
		t.Fatalf("invalid requests must not reach the daemon")
	}

	d.moveFail = errors.New("cell (0,0) on HDMI-1 is taken")
	_, _, err = s.handleMoveIcon(context.Background(), nil, MoveIconInput{Item: "a.txt", Screen: "HDMI-1"})
	if err == nil || !strings.Contains(err.Error(), "is taken") {
		t.Fatalf("expected daemon error, got %v", err)
	}
}

func TestRefreshLayout(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d, nil)

	_, out, err := s.handleRefreshLayout(context.Background(), nil, RefreshLayoutInput{Rescan: true})
	if err != nil {
		t.Fatalf("refresh_layout: %v", err)
	}
	if d.rescans != 1 || d.refresh != 1 || out.Inserted != 1 || out.Items != 3 {
		t.Fatalf("unexpected refresh result %+v (rescans=%d refresh=%d)", out, d.rescans, d.refresh)
	}

	if _, _, err := s.handleRefreshLayout(context.Background(), nil, RefreshLayoutInput{}); err != nil {
		t.Fatalf("refresh_layout: %v", err)
	}
	if d.rescans != 1 || d.refresh != 2 {
		t.Fatalf("expected refresh without rescan, rescans=%d refresh=%d", d.rescans, d.refresh)
	}
}

func TestDaemonDown(t *testing.T) {
	d := newFakeDaemon()
	d.down = true
	s := NewServer(d, nil)

	_, _, err := s.handleGetStatus(context.Background(), nil, EmptyInput{})
	if !errors.Is(err, errDown) || !strings.HasPrefix(err.Error(), "deskgrid daemon:") {
		t.Fatalf("expected wrapped daemon error, got %v", err)
	}
}
