package iconview

import (
	"sort"

	"github.com/1broseidon/deskgrid/internal/grid"
)

func (v *View) screenEvents() ScreenEvents {
	return ScreenEvents{
		Changed: v.onScreenChanged,
		VisibleChanged: func(s *Screen, visible bool) {
			if visible {
				v.invalidateCacheFor(s)
				v.notify()
				return
			}
			v.HandleScreenChanged(s)
		},
	}
}

func (v *View) onScreenChanged(s *Screen) {
	v.invalidateCacheFor(s)
	v.HandleScreenChanged(s)
}

func (v *View) invalidateCacheFor(s *Screen) {
	for _, uri := range s.AllItems() {
		delete(v.posCache, uri)
	}
}

// AddScreen creates a slot for output and appends it. Items whose stored
// position belongs to this screen are moved back when their cell is free.
func (v *View) AddScreen(output *Output, primary bool) *Screen {
	if output == nil {
		return nil
	}
	if existing := v.Screen(output.Name); existing != nil {
		return existing
	}

	s := NewScreen(output, v.profile.CellSize(), ScreenOptions{
		Store:  v.store,
		Events: v.screenEvents(),
		Logger: v.logger,
	})
	v.screens = append(v.screens, s)
	if primary || v.primary == nil || !v.primary.IsValid() {
		v.primary = s
	}
	v.logger.Debug("screen added", "screen", s.Name(), "geometry", s.Geometry().String(), "primary", v.primary == s)

	v.restoreRemembered(s)
	v.notify()
	return s
}

func (v *View) restoreRemembered(s *Screen) {
	if v.store == nil {
		return
	}
	for _, uri := range v.items.List() {
		c, ok := v.store.Load(s.Name(), uri)
		if !ok || !s.CellOnScreen(c) {
			continue
		}
		s.seedMetaPos(uri, c)
		if other := s.occupant(c); other != "" && other != uri {
			continue
		}
		if cur := v.ItemScreen(uri); cur != nil {
			cur.MakeItemGridPosInvalid(uri)
		}
		delete(v.posCache, uri)
		s.SetItemGridPos(uri, c)
		v.floatItems.Remove(uri)
	}
}

// RemoveScreen drops the slot named name and redistributes its items over
// the remaining screens. Whatever does not fit is forced onto the primary.
func (v *View) RemoveScreen(name string) {
	idx := -1
	for i, s := range v.screens {
		if s.Name() == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	removed := v.screens[idx]
	v.screens = append(v.screens[:idx], v.screens[idx+1:]...)

	entries := removed.ItemsWithPositions()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Position.X != entries[j].Position.X {
			return entries[i].Position.X < entries[j].Position.X
		}
		return entries[i].Position.Y < entries[j].Position.Y
	})
	pending := make([]string, 0, len(entries))
	for _, e := range entries {
		pending = append(pending, e.URI)
		delete(v.posCache, e.URI)
	}

	if v.primary == removed {
		v.primary = v.firstValidScreen()
	}
	v.logger.Debug("screen removed", "screen", name, "items", len(pending))

	for _, s := range v.screens {
		if len(pending) == 0 {
			break
		}
		if !s.IsValid() {
			continue
		}
		pending = s.PutIconsOnScreen(pending, false)
	}
	for _, uri := range pending {
		v.forcePrimary(uri)
	}

	v.collectStranded()
	v.notify()
}

// SetPrimary makes the slot named name primary. The previous primary and the
// new one exchange their items so the desktop follows the primary screen.
func (v *View) SetPrimary(name string) {
	next := v.Screen(name)
	if next == nil {
		return
	}
	prev := v.primary
	v.primary = next
	v.swapScreens(next, prev)
}

func (v *View) swapScreens(a, b *Screen) {
	if a == nil || b == nil || a == b {
		return
	}
	ia, ib := -1, -1
	for i, s := range v.screens {
		switch s {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return
	}

	for _, uri := range a.AllItems() {
		delete(v.posCache, uri)
	}
	for _, uri := range b.AllItems() {
		delete(v.posCache, uri)
	}

	a.SwapScreen(b)
	v.screens[ia], v.screens[ib] = b, a
	v.logger.Debug("primary screen swapped", "primary", a.Name(), "previous", b.Name())

	v.HandleScreenChanged(a)
	v.HandleScreenChanged(b)
}

// UpdateGeometry applies a new output geometry to the slot named name.
func (v *View) UpdateGeometry(name string, geometry grid.Rect) {
	s := v.Screen(name)
	if s == nil {
		return
	}
	s.OnGeometryChanged(geometry)
}

// RebindScreen attaches the slot named name to a new output.
func (v *View) RebindScreen(name string, output *Output) {
	s := v.Screen(name)
	if s == nil || output == nil {
		return
	}
	s.RebindScreen(output)
	if output.Name != name {
		v.logger.Debug("screen renamed on rebind", "from", name, "to", output.Name)
	}
	s.Refresh()
	v.HandleScreenChanged(s)
}

// InvalidateScreen detaches the slot named name from its output, keeping the
// slot so a later RebindScreen can reuse it. Its items move to other screens.
func (v *View) InvalidateScreen(name string) {
	if s := v.Screen(name); s != nil {
		s.Invalidate()
	}
}

// SetPanelMargins applies panel margins to the slot named name.
func (v *View) SetPanelMargins(name string, m grid.Margins) {
	s := v.Screen(name)
	if s == nil || s.Margins() == m {
		return
	}
	s.SetPanelMargins(m)
}

// SyncOutputs diffs a fresh list of outputs against the current slots and
// applies the matching add, remove, geometry, margin and primary events. An
// output with an empty geometry is connected but switched off: its slot is
// invalidated, and rebound once the output has a geometry again.
func (v *View) SyncOutputs(outputs []Output, primaryName string) {
	present := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		present[out.Name] = true
	}

	prevPrimary := v.primary
	if prevPrimary != nil && !prevPrimary.IsValid() {
		prevPrimary = nil
	}
	for _, s := range v.Screens() {
		if !present[s.Name()] {
			if s == prevPrimary {
				prevPrimary = nil
			}
			v.RemoveScreen(s.Name())
		}
	}

	for i := range outputs {
		out := outputs[i]
		s := v.Screen(out.Name)
		switch {
		case out.Geometry.Empty():
			if s != nil && s.IsValid() {
				if s == prevPrimary {
					prevPrimary = nil
				}
				v.InvalidateScreen(out.Name)
			}
		case s == nil:
			v.AddScreen(&out, out.Name == primaryName && prevPrimary == nil)
		case !s.IsValid():
			v.RebindScreen(out.Name, &out)
		default:
			cur := s.Output()
			if cur.Margins != out.Margins {
				v.SetPanelMargins(out.Name, out.Margins)
			}
			if cur.Geometry != out.Geometry {
				v.UpdateGeometry(out.Name, out.Geometry)
			}
		}
	}

	next := v.Screen(primaryName)
	if next == nil || !next.IsValid() || next == v.primary {
		return
	}
	if prevPrimary == nil {
		// No surviving primary to trade items with.
		v.primary = next
		v.notify()
		return
	}
	v.SetPrimary(primaryName)
}

// Layout is a serialisable description of the whole desktop.
type Layout struct {
	Zoom     string         `json:"zoom"`
	IconSize grid.Size      `json:"icon_size"`
	GridSize grid.Size      `json:"grid_size"`
	CellSize grid.Size      `json:"cell_size"`
	Margin   grid.Point     `json:"margin"`
	Screens  []ScreenLayout `json:"screens"`
	Floating []string       `json:"floating,omitempty"`
	Items    int            `json:"items"`
}

// ScreenLayout describes one slot.
type ScreenLayout struct {
	Name      string       `json:"name"`
	Primary   bool         `json:"primary"`
	Valid     bool         `json:"valid"`
	Geometry  grid.Rect    `json:"geometry"`
	Margins   grid.Margins `json:"margins"`
	MaxColumn int          `json:"max_column"`
	MaxRow    int          `json:"max_row"`
	Items     []ItemLayout `json:"items"`
}

// ItemLayout describes one placed item.
type ItemLayout struct {
	URI        string     `json:"uri"`
	Cell       grid.Cell  `json:"cell"`
	Position   grid.Point `json:"position"`
	Rect       grid.Rect  `json:"rect"`
	Overlapped bool       `json:"overlapped,omitempty"`
}

// Placement is an ItemLayout together with the screen that holds it.
type Placement struct {
	Screen string `json:"screen"`
	ItemLayout
}

// Placement reports the live cell of uri, or false when no valid screen
// holds it.
func (v *View) Placement(uri string) (Placement, bool) {
	s := v.ItemScreen(uri)
	if s == nil {
		return Placement{}, false
	}
	return Placement{Screen: s.Name(), ItemLayout: v.itemLayout(s, uri)}, true
}

// itemLayout describes uri on s, which must be valid and hold it.
func (v *View) itemLayout(s *Screen, uri string) ItemLayout {
	c, _ := s.ItemCell(uri)
	return ItemLayout{
		URI:        uri,
		Cell:       c,
		Position:   s.ToGlobal(c),
		Rect:       v.VisualRect(uri),
		Overlapped: v.IsItemOverlapped(uri),
	}
}

// Snapshot captures the current layout.
func (v *View) Snapshot() Layout {
	l := Layout{
		Zoom:     v.profile.Level.String(),
		IconSize: v.profile.IconSize,
		GridSize: v.profile.GridSize,
		CellSize: v.profile.CellSize(),
		Margin:   v.profile.Margin(),
		Floating: v.floatItems.List(),
		Items:    v.items.Len(),
	}
	for _, s := range v.screens {
		sl := ScreenLayout{
			Name:      s.Name(),
			Primary:   s == v.primary,
			Valid:     s.IsValid(),
			Geometry:  s.Geometry(),
			Margins:   s.Margins(),
			MaxColumn: s.MaxColumn(),
			MaxRow:    s.MaxRow(),
			Items:     []ItemLayout{},
		}
		for _, uri := range s.AllItems() {
			if !s.IsValid() {
				c, _ := s.ItemCell(uri)
				sl.Items = append(sl.Items, ItemLayout{URI: uri, Cell: c, Position: s.ToGlobal(c)})
				continue
			}
			sl.Items = append(sl.Items, v.itemLayout(s, uri))
		}
		sort.SliceStable(sl.Items, func(i, j int) bool {
			a, b := sl.Items[i].Cell, sl.Items[j].Cell
			if a.Column != b.Column {
				return a.Column < b.Column
			}
			return a.Row < b.Row
		})
		l.Screens = append(l.Screens, sl)
	}
	return l
}
