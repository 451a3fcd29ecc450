package iconview

import (
	"testing"

	"github.com/1broseidon/deskgrid/internal/grid"
)

func newTestScreen(geometry grid.Rect, cell grid.Size) *Screen {
	return NewScreen(&Output{Name: "TEST-1", Geometry: geometry}, cell, ScreenOptions{})
}

func TestScreen_PlaceItemScansColumnFirst(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 960, Height: 540}, grid.Size{Width: 100, Height: 100})
	if s.MaxColumn() != 8 || s.MaxRow() != 4 {
		t.Fatalf("expected capacity 8x4, got %dx%d", s.MaxColumn(), s.MaxRow())
	}

	if got := s.PlaceItem("a", grid.Cell{}, false); got != (grid.Cell{Column: 0, Row: 0}) {
		t.Fatalf("expected a at (0,0), got %v", got)
	}
	if got := s.PlaceItem("b", grid.Cell{}, false); got != (grid.Cell{Column: 0, Row: 1}) {
		t.Fatalf("expected b at (0,1), got %v", got)
	}
}

func TestScreen_PlaceItemWrapsToTopOfNextColumn(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 200, Height: 200}, grid.Size{Width: 100, Height: 100})
	s.PlaceItem("a", grid.Cell{Column: 0, Row: 0}, false)
	s.PlaceItem("b", grid.Cell{Column: 0, Row: 1}, false)

	got := s.PlaceItem("c", grid.Cell{Column: 0, Row: 1}, false)
	if got != (grid.Cell{Column: 1, Row: 0}) {
		t.Fatalf("expected scan to continue at (1,0), got %v", got)
	}
}

func TestScreen_PlaceItemReplacesOwnEntry(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 300, Height: 300}, grid.Size{Width: 100, Height: 100})
	s.PlaceItem("a", grid.Cell{Column: 2, Row: 2}, false)
	s.PlaceItem("a", grid.Cell{}, false)

	if got := len(s.AllItems()); got != 1 {
		t.Fatalf("expected one entry for a, got %d", got)
	}
	if c, _ := s.ItemCell("a"); c != (grid.Cell{}) {
		t.Fatalf("expected a moved to (0,0), got %v", c)
	}
}

func TestScreen_FullGridFailsWithoutForce(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 100, Height: 100}, grid.Size{Width: 100, Height: 100})
	s.PlaceItem("a", grid.Cell{}, false)

	if got := s.PlaceItem("b", grid.Cell{}, false); got.Valid() {
		t.Fatalf("expected sentinel on full grid, got %v", got)
	}
	if s.HasItem("b") {
		t.Fatalf("failed placement must not record b")
	}
}

func TestScreen_ForcedPlacementEvictsOccupant(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 100, Height: 100}, grid.Size{Width: 100, Height: 100})
	s.PlaceItem("a", grid.Cell{}, false)

	got := s.PlaceItem("b", grid.Cell{}, true)
	if got != (grid.Cell{}) {
		t.Fatalf("expected forced placement at (0,0), got %v", got)
	}
	if s.HasItem("a") {
		t.Fatalf("expected a to be evicted")
	}
}

func TestScreen_ForcedPlacementNeverReturnsSentinel(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 300, Height: 300}, grid.Size{Width: 100, Height: 100})
	for i, uri := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		s.PlaceItem(uri, grid.Cell{Column: i % 3, Row: i / 3}, false)
	}

	starts := []grid.Cell{{}, {Column: 2, Row: 2}, {Column: 7, Row: 7}, {Column: -3, Row: 1}}
	for _, start := range starts {
		if got := s.PlaceItem("z", start, true); got != (grid.Cell{}) {
			t.Fatalf("start %v: expected (0,0), got %v", start, got)
		}
	}
}

func TestScreen_InvalidScreenNeverPlaces(t *testing.T) {
	s := NewScreen(nil, grid.Size{Width: 100, Height: 100}, ScreenOptions{})
	if s.IsValid() {
		t.Fatalf("expected nil output to yield an invalid screen")
	}
	if got := s.PlaceItem("a", grid.Cell{}, true); got.Valid() {
		t.Fatalf("expected sentinel from invalid screen, got %v", got)
	}
	if got := s.PutIconOnScreen("a", grid.Point{}, false); got.Valid() {
		t.Fatalf("expected sentinel from invalid screen, got %v", got)
	}
	if got := s.PlaceItem("", grid.Cell{}, true); got.Valid() {
		t.Fatalf("expected sentinel for empty uri, got %v", got)
	}
	if s.SetItemGridPos("b", grid.Cell{}) || s.HasItem("b") {
		t.Fatalf("expected direct assignment to fail on invalid screen")
	}

	gone := newTestScreen(grid.Rect{Width: 300, Height: 300}, grid.Size{Width: 100, Height: 100})
	if !gone.SetItemGridPos("a", grid.Cell{Column: 1, Row: 1}) {
		t.Fatalf("expected assignment on valid screen")
	}
	gone.Invalidate()
	if gone.SetItemGridPos("a", grid.Cell{Column: 1, Row: 1}) {
		t.Fatalf("expected same-cell assignment to fail after Invalidate")
	}
	if gone.SetItemGridPos("c", grid.Cell{Column: 2, Row: 2}) || gone.HasItem("c") {
		t.Fatalf("expected invalidated screen to reject new items")
	}
	if got := gone.PutIconOnScreen("c", grid.Point{}, true); got.Valid() {
		t.Fatalf("expected sentinel from invalidated screen, got %v", got)
	}
}

func TestScreen_MetaFallback(t *testing.T) {
	s := newTestScreen(grid.Rect{X: 100, Y: 100, Width: 500, Height: 500}, grid.Size{Width: 50, Height: 50})
	s.seedMetaPos("x", grid.Cell{Column: 2, Row: 3})

	if got := s.ItemGlobalPosition("x"); got != (grid.Point{X: 200, Y: 250}) {
		t.Fatalf("expected (200,250), got %v", got)
	}
	if got := s.ItemGridPosition("x"); got.Valid() {
		t.Fatalf("occupancy lookup should miss, got %v", got)
	}

	s.PlaceItem("x", grid.Cell{Column: 1, Row: 0}, false)
	if got := s.ItemGlobalPosition("x"); got != (grid.Point{X: 150, Y: 100}) {
		t.Fatalf("expected occupancy to win with (150,100), got %v", got)
	}
}

func TestScreen_ItemMetaPositionHiddenWhenTaken(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 500, Height: 500}, grid.Size{Width: 50, Height: 50})
	s.seedMetaPos("x", grid.Cell{Column: 1, Row: 1})
	s.SetItemGridPos("y", grid.Cell{Column: 1, Row: 1})

	if got := s.ItemMetaPosition("x"); got.Valid() {
		t.Fatalf("expected conflicting meta position to be hidden, got %v", got)
	}
}

func TestScreen_SetItemGridPosRules(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 300, Height: 300}, grid.Size{Width: 100, Height: 100})

	if !s.SetItemGridPos("a", grid.Cell{Column: 1, Row: 1}) {
		t.Fatalf("expected free cell assignment to succeed")
	}
	if s.SetItemGridPos("b", grid.Cell{Column: 1, Row: 1}) {
		t.Fatalf("expected occupied cell to be rejected")
	}
	if !s.SetItemGridPos("a", grid.Cell{Column: 1, Row: 1}) {
		t.Fatalf("re-assigning own cell should be a no-op success")
	}
	if s.SetItemGridPos("b", grid.Cell{Column: 3, Row: 0}) {
		t.Fatalf("expected off-grid cell to be rejected")
	}
	if s.HasItem("b") {
		t.Fatalf("rejected assignments must not mutate")
	}
}

func TestScreen_GlobalSettersRequireOnScreenPoint(t *testing.T) {
	store := newMemStore()
	s := NewScreen(output("DP-1", 1000, 0, 300, 300), grid.Size{Width: 100, Height: 100}, ScreenOptions{Store: store})

	if s.SetItemWithGlobalPos("a", grid.Point{X: 50, Y: 50}) {
		t.Fatalf("expected point left of the screen to be rejected")
	}
	if !s.SetItemWithGlobalPos("a", grid.Point{X: 1150, Y: 250}) {
		t.Fatalf("expected on-screen point to be accepted")
	}
	if c, _ := s.ItemCell("a"); c != (grid.Cell{Column: 1, Row: 2}) {
		t.Fatalf("expected a at (1,2), got %v", c)
	}

	if !s.SaveItemWithGlobalPos("a", grid.Point{X: 1150, Y: 250}) {
		t.Fatalf("expected meta save to succeed")
	}
	if c, ok := store.Load("DP-1", "a"); !ok || c != (grid.Cell{Column: 1, Row: 2}) {
		t.Fatalf("expected store to hold (1,2), got %v %v", c, ok)
	}

	s.MakeItemMetaPosInvalid("a")
	if _, ok := store.Load("DP-1", "a"); ok {
		t.Fatalf("expected store entry to be forgotten")
	}
	s.MakeItemMetaPosInvalid("a")
	s.MakeItemGridPosInvalid("missing")
}

func TestScreen_PutIconsOnScreenContinuesCursor(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 200, Height: 200}, grid.Size{Width: 100, Height: 100})
	notPut := s.PutIconsOnScreen([]string{"a", "b", "c", "d", "e"}, false)

	if len(notPut) != 1 || notPut[0] != "e" {
		t.Fatalf("expected only e to be left over, got %v", notPut)
	}
	want := map[string]grid.Cell{
		"a": {Column: 0, Row: 0},
		"b": {Column: 0, Row: 1},
		"c": {Column: 1, Row: 0},
		"d": {Column: 1, Row: 1},
	}
	for uri, cell := range want {
		if got, _ := s.ItemCell(uri); got != cell {
			t.Fatalf("expected %s at %v, got %v", uri, cell, got)
		}
	}
}

func TestScreen_RefreshRepairsOverlapAndBounds(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 300, Height: 300}, grid.Size{Width: 100, Height: 100})
	s.items["a"] = grid.Cell{Column: 0, Row: 0}
	s.items["b"] = grid.Cell{Column: 0, Row: 0}
	s.items["c"] = grid.Cell{Column: 9, Row: 9}

	s.Refresh()

	assertGridInvariants(t, s)
	if len(s.AllItems()) != 3 {
		t.Fatalf("expected all three items kept, got %v", s.AllItems())
	}
	if c, _ := s.ItemCell("a"); c != (grid.Cell{}) {
		t.Fatalf("first item of an overlapping group keeps its cell, got %v", c)
	}
}

func TestScreen_RefreshOnFullGridForcesOrigin(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 100, Height: 100}, grid.Size{Width: 100, Height: 100})
	s.items["a"] = grid.Cell{Column: 0, Row: 0}
	s.items["b"] = grid.Cell{Column: 4, Row: 0}

	s.Refresh()

	assertGridInvariants(t, s)
	if c, ok := s.ItemCell("b"); !ok || c != (grid.Cell{}) {
		t.Fatalf("expected b forced to (0,0), got %v %v", c, ok)
	}
}

func TestScreen_GridSizeChangeShrinksCapacity(t *testing.T) {
	s := newTestScreen(grid.Rect{Width: 1000, Height: 500}, grid.Size{Width: 100, Height: 100})
	s.SetItemGridPos("a", grid.Cell{Column: 9, Row: 4})

	s.SetGridSize(grid.Size{Width: 200, Height: 200})
	if s.MaxColumn() != 4 || s.MaxRow() != 1 {
		t.Fatalf("expected capacity 4x1, got %dx%d", s.MaxColumn(), s.MaxRow())
	}
	if out := s.ItemsOutOfGrid(); len(out) != 1 || out[0] != "a" {
		t.Fatalf("expected a out of grid, got %v", out)
	}

	s.SetGridSize(grid.Size{})
	if s.GridSize() != (grid.Size{Width: 200, Height: 200}) {
		t.Fatalf("empty grid size must be ignored")
	}
}

func TestScreen_PanelMarginsShiftOrigin(t *testing.T) {
	var changed int
	s := NewScreen(output("eDP-1", 0, 0, 1000, 600), grid.Size{Width: 100, Height: 100}, ScreenOptions{
		Events: ScreenEvents{Changed: func(*Screen) { changed++ }},
	})

	s.SetPanelMargins(grid.Margins{Top: 40, Left: 60})
	if s.Origin() != (grid.Point{X: 60, Y: 40}) {
		t.Fatalf("expected origin (60,40), got %v", s.Origin())
	}
	if s.MaxColumn() != 8 || s.MaxRow() != 4 {
		t.Fatalf("expected capacity 8x4, got %dx%d", s.MaxColumn(), s.MaxRow())
	}

	// Margins are applied to the output geometry, not accumulated.
	s.SetPanelMargins(grid.Margins{Top: 40, Left: 60})
	if s.Origin() != (grid.Point{X: 60, Y: 40}) {
		t.Fatalf("expected origin unchanged, got %v", s.Origin())
	}
	if changed != 2 {
		t.Fatalf("expected two change notifications, got %d", changed)
	}
}

func TestScreen_SwapScreenExchangesTables(t *testing.T) {
	a := NewScreen(output("A", 0, 0, 300, 300), grid.Size{Width: 100, Height: 100}, ScreenOptions{})
	b := NewScreen(output("B", 300, 0, 300, 300), grid.Size{Width: 100, Height: 100}, ScreenOptions{})
	a.SetItemGridPos("x", grid.Cell{Column: 1, Row: 1})
	b.seedMetaPos("y", grid.Cell{Column: 2, Row: 0})

	a.SwapScreen(b)

	if !b.HasItem("x") || a.HasItem("x") {
		t.Fatalf("expected x moved to B")
	}
	if got := a.ItemGlobalPosition("y"); got != (grid.Point{X: 200, Y: 0}) {
		t.Fatalf("expected y remembered on A at (200,0), got %v", got)
	}
}

func TestScreen_InvalidateAndRebind(t *testing.T) {
	var events []bool
	s := NewScreen(output("HDMI-1", 0, 0, 300, 300), grid.Size{Width: 100, Height: 100}, ScreenOptions{
		Events: ScreenEvents{VisibleChanged: func(_ *Screen, visible bool) { events = append(events, visible) }},
	})

	s.Invalidate()
	if s.IsValid() {
		t.Fatalf("expected screen invalid after Invalidate")
	}
	if s.Name() != "HDMI-1" {
		t.Fatalf("name must survive invalidation, got %q", s.Name())
	}

	s.RebindScreen(output("HDMI-1", 0, 0, 600, 300))
	if !s.IsValid() || s.MaxColumn() != 5 {
		t.Fatalf("expected rebound screen with 6 columns, got valid=%v maxColumn=%d", s.IsValid(), s.MaxColumn())
	}
	if len(events) != 2 || events[0] || !events[1] {
		t.Fatalf("expected visibility events [false true], got %v", events)
	}
}

func TestScreen_ItemAtAndCenterPoint(t *testing.T) {
	s := newTestScreen(grid.Rect{X: 100, Y: 0, Width: 400, Height: 400}, grid.Size{Width: 100, Height: 100})
	s.SetItemGridPos("a", grid.Cell{Column: 1, Row: 2})

	if got := s.ItemAt(grid.Point{X: 250, Y: 299}); got != "a" {
		t.Fatalf("expected a under (250,299), got %q", got)
	}
	if got := s.ItemAt(grid.Point{X: 250, Y: 300}); got != "" {
		t.Fatalf("expected empty cell under (250,300), got %q", got)
	}
	if got := s.GridCenterPoint(grid.Point{X: 210, Y: 220}); got != (grid.Point{X: 250, Y: 250}) {
		t.Fatalf("expected center (250,250), got %v", got)
	}
}
