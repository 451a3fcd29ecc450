package iconview

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/deskgrid/internal/grid"
)

// ItemModel is the ordered list of items shown on the desktop.
type ItemModel interface {
	RowCount() int
	URIAt(row int) string
}

// Options configure a View.
type Options struct {
	Model     ItemModel
	Store     PositionStore
	Logger    *slog.Logger
	ZoomLevel grid.ZoomLevel
	// LegacyQuirks reproduces the sticky "full" and "success" flags of the
	// historical placement loops.
	LegacyQuirks bool
	// OnUpdate is called whenever the layout changed and should be redrawn.
	OnUpdate func()
}

// View keeps icon positions consistent across a changing set of screens.
// It is not safe for concurrent use; callers serialise access.
type View struct {
	model    ItemModel
	store    PositionStore
	logger   *slog.Logger
	legacy   bool
	onUpdate func()

	profile grid.Profile
	screens []*Screen
	primary *Screen

	items      *uriSet
	floatItems *uriSet
	posCache   map[string]grid.Point
}

// NewView creates an empty view with no screens.
func NewView(opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		model:      opts.Model,
		store:      opts.Store,
		logger:     logger,
		legacy:     opts.LegacyQuirks,
		onUpdate:   opts.OnUpdate,
		profile:    grid.ProfileFor(opts.ZoomLevel),
		items:      newURISet(),
		floatItems: newURISet(),
		posCache:   make(map[string]grid.Point),
	}
}

// ZoomProfile returns the active zoom profile.
func (v *View) ZoomProfile() grid.Profile {
	return v.profile
}

// Screens returns the screen slots in order.
func (v *View) Screens() []*Screen {
	out := make([]*Screen, len(v.screens))
	copy(out, v.screens)
	return out
}

// Primary returns the primary slot, or nil when there are no screens.
func (v *View) Primary() *Screen {
	return v.primary
}

// Items returns every known item in insertion order.
func (v *View) Items() []string {
	return v.items.List()
}

// FloatItems returns items that have no committed position yet.
func (v *View) FloatItems() []string {
	return v.floatItems.List()
}

// Screen returns the slot named name.
func (v *View) Screen(name string) *Screen {
	for _, s := range v.screens {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func (v *View) notify() {
	if v.onUpdate != nil {
		v.onUpdate()
	}
}

// TryPosition resolves the absolute position of uri without mutating anything.
// A live cell wins over remembered ones; among remembered cells the last
// screen wins.
func (v *View) TryPosition(uri string) (grid.Point, bool) {
	if s := v.ItemScreen(uri); s != nil {
		return s.ItemGridPosition(uri), true
	}
	pos := grid.InvalidPoint
	for _, s := range v.screens {
		if p := s.ItemGlobalPosition(uri); p.Valid() {
			pos = p
		}
	}
	return pos, pos.Valid()
}

// fileMetaInfoPos resolves uri and realises a remembered position into an
// occupancy entry. Items nobody knows are placed at the first free cell of
// the first screen that has room. On a full desktop the remembered position
// is returned unrealised, or grid.InvalidPoint when there is none.
func (v *View) fileMetaInfoPos(uri string) grid.Point {
	if uri == "" {
		return grid.InvalidPoint
	}
	if s := v.ItemScreen(uri); s != nil {
		return s.ItemGridPosition(uri)
	}
	if p := v.realizeRemembered(uri); p.Valid() {
		return p
	}
	for _, s := range v.screens {
		if p := s.PutIconOnScreen(uri, s.Origin(), false); p.Valid() {
			return p
		}
	}
	p, _ := v.TryPosition(uri)
	return p
}

// realizeRemembered claims the remembered cell of uri on the last screen
// whose cell is still free.
func (v *View) realizeRemembered(uri string) grid.Point {
	for i := len(v.screens) - 1; i >= 0; i-- {
		s := v.screens[i]
		c := s.metaPos(uri)
		if !c.Valid() || !s.IsValid() {
			continue
		}
		if s.SetItemGridPos(uri, c) {
			return s.ToGlobal(c)
		}
	}
	return grid.InvalidPoint
}

// EnsurePlaced returns the position of uri, placing it if necessary. On a
// full desktop the item is forced onto the primary screen.
func (v *View) EnsurePlaced(uri string) grid.Point {
	if uri == "" {
		return grid.InvalidPoint
	}
	p := v.fileMetaInfoPos(uri)
	if v.ItemScreen(uri) == nil {
		p = v.forcePrimary(uri)
	}
	v.collectStranded()
	return p
}

// VisualRect returns the rectangle uri is drawn in.
func (v *View) VisualRect(uri string) grid.Rect {
	margin := v.profile.Margin()
	gs := v.profile.GridSize
	rect := grid.Rect{X: margin.X, Y: margin.Y, Width: gs.Width, Height: gs.Height}
	if uri == "" {
		return rect
	}

	p, ok := v.posCache[uri]
	if !ok {
		p = v.fileMetaInfoPos(uri)
		if !p.Valid() {
			return rect
		}
		v.posCache[uri] = p
	}
	rect.X, rect.Y = p.X+margin.X, p.Y+margin.Y
	return rect
}

// ItemScreen returns the valid slot whose occupancy table holds uri.
func (v *View) ItemScreen(uri string) *Screen {
	for _, s := range v.screens {
		if s.IsValid() && s.HasItem(uri) {
			return s
		}
	}
	return nil
}

// ScreenAt returns the valid slot containing the absolute point p.
func (v *View) ScreenAt(p grid.Point) *Screen {
	for _, s := range v.screens {
		if s.PosIsOnScreen(p) {
			return s
		}
	}
	return nil
}

// ItemAt returns the item whose visual rect contains p, or "".
func (v *View) ItemAt(p grid.Point) string {
	margin := v.profile.Margin()
	gs := v.profile.GridSize
	for _, uri := range v.items.List() {
		pos, ok := v.resolvedPosition(uri)
		if !ok {
			continue
		}
		r := grid.Rect{X: pos.X + margin.X, Y: pos.Y + margin.Y, Width: gs.Width, Height: gs.Height}
		if r.Contains(p) {
			return uri
		}
	}
	return ""
}

func (v *View) resolvedPosition(uri string) (grid.Point, bool) {
	if p, ok := v.posCache[uri]; ok {
		return p, true
	}
	return v.TryPosition(uri)
}

// IsItemOverlapped reports whether another item resolves to the same position.
func (v *View) IsItemOverlapped(uri string) bool {
	pos, ok := v.resolvedPosition(uri)
	if !ok {
		return false
	}
	for _, other := range v.items.List() {
		if other == uri {
			continue
		}
		if p, ok := v.resolvedPosition(other); ok && p == pos {
			return true
		}
	}
	return false
}

// RowsInserted adds model rows start..end to the layout.
func (v *View) RowsInserted(start, end int) {
	if v.model == nil {
		return
	}
	for row := start; row <= end; row++ {
		uri := v.model.URIAt(row)
		if uri == "" {
			continue
		}
		v.items.Add(uri)
		delete(v.posCache, uri)
		v.seedRemembered(uri)

		if v.ItemScreen(uri) != nil || v.realizeRemembered(uri).Valid() {
			continue
		}

		v.floatItems.Add(uri)
		placed := false
		for _, s := range v.screens {
			if p := s.PutIconOnScreen(uri, s.Origin(), false); p.Valid() {
				placed = true
				break
			}
		}
		if !placed {
			v.forcePrimary(uri)
		}
	}
	v.collectStranded()
	v.notify()
}

// seedRemembered loads stored cells of uri into each slot's meta table.
func (v *View) seedRemembered(uri string) {
	if v.store == nil {
		return
	}
	for _, s := range v.screens {
		if !s.IsValid() {
			continue
		}
		if c, ok := v.store.Load(s.Name(), uri); ok {
			s.seedMetaPos(uri, c)
		}
	}
}

// RowsAboutToBeRemoved drops model rows start..end and lets floating items
// close the gaps.
func (v *View) RowsAboutToBeRemoved(start, end int) {
	if v.model == nil {
		return
	}
	for row := start; row <= end; row++ {
		uri := v.model.URIAt(row)
		if uri == "" {
			continue
		}
		delete(v.posCache, uri)
		v.items.Remove(uri)
		v.floatItems.Remove(uri)
		for _, s := range v.screens {
			s.MakeItemGridPosInvalid(uri)
		}
	}
	v.RelayoutItems(v.floatItems.List())
}

// SaveItemsPositions commits the position of every visible, non-overlapping
// item: the owning screen keeps it, every other screen forgets it.
func (v *View) SaveItemsPositions() {
	for _, s := range v.screens {
		if !s.IsValid() {
			continue
		}
		for _, uri := range s.ItemsVisible() {
			if !s.HasItem(uri) || v.IsItemOverlapped(uri) {
				continue
			}
			cell, _ := s.ItemCell(uri)
			v.floatItems.Remove(uri)
			delete(v.posCache, uri)
			for _, other := range v.screens {
				if other != s {
					other.MakeItemGridPosInvalid(uri)
				}
				other.MakeItemMetaPosInvalid(uri)
			}
			s.SaveItemWithGlobalPos(uri, s.ToGlobal(cell))
		}
	}
}

// RelayoutItems removes uris from every screen and places them again from
// the top-left of the first screen with room.
func (v *View) RelayoutItems(uris []string) {
	for _, uri := range uris {
		delete(v.posCache, uri)
		for _, s := range v.screens {
			if !s.IsValid() {
				continue
			}
			s.MakeItemGridPosInvalid(uri)
			s.MakeItemMetaPosInvalid(uri)
		}
	}

	success := false
	for _, uri := range uris {
		if !v.legacy {
			success = false
		}
		for _, s := range v.screens {
			if !s.IsValid() {
				continue
			}
			if p := s.PutIconOnScreen(uri, s.Origin(), false); p.Valid() {
				success = true
				s.SaveItemWithGlobalPos(uri, p)
				break
			}
		}
		if !success {
			v.forcePrimary(uri)
		}
	}
	v.collectStranded()
	v.notify()
}

// HandleScreenChanged re-validates the items of s after its geometry changed.
// Items still on the grid keep their cell; the rest move to the next free
// cell of s, then of the other screens, then are forced onto the primary.
func (v *View) HandleScreenChanged(s *Screen) {
	if s == nil {
		return
	}

	entries := s.ItemsWithPositions()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Position.X != entries[j].Position.X {
			return entries[i].Position.X < entries[j].Position.X
		}
		return entries[i].Position.Y < entries[j].Position.Y
	})

	cursor := s.Origin()
	homeFull, othersFull := false, false
	for _, e := range entries {
		uri := e.URI
		delete(v.posCache, uri)

		if s.IsValid() && s.PosIsOnScreen(e.Position) && s.CellOnScreen(s.ToLocal(e.Position)) {
			s.SaveItemWithGlobalPos(uri, e.Position)
			continue
		}

		s.MakeItemGridPosInvalid(uri)
		s.MakeItemMetaPosInvalid(uri)

		placed := false
		if !homeFull {
			p := s.PutIconOnScreen(uri, cursor, false)
			if p.Valid() {
				cursor = p
				s.SaveItemWithGlobalPos(uri, p)
				placed = true
			} else {
				homeFull = true
				cursor = s.Origin()
			}
		}

		if !placed && !othersFull {
			for _, other := range v.screens {
				if other == s || !other.IsValid() {
					continue
				}
				if p := other.PutIconOnScreen(uri, other.Origin(), false); p.Valid() {
					other.SaveItemWithGlobalPos(uri, p)
					placed = true
					break
				}
			}
			if !placed && !v.legacy {
				othersFull = true
			}
		}

		if !placed {
			v.forcePrimary(uri)
		}
	}

	v.SaveItemsPositions()
	v.collectStranded()
	v.notify()
}

// Refresh repairs every screen and commits the result.
func (v *View) Refresh() {
	v.posCache = make(map[string]grid.Point)
	for _, s := range v.screens {
		s.Refresh()
	}
	v.SaveItemsPositions()
	v.collectStranded()
	v.notify()
}

// SetGridSize changes the cell pitch of every screen and re-lays out all
// items from their remembered cells.
func (v *View) SetGridSize(size grid.Size) {
	if size.Empty() {
		return
	}
	for _, s := range v.screens {
		s.SetGridSize(size)
	}
	for _, s := range v.screens {
		s.ClearItems()
	}
	v.posCache = make(map[string]grid.Point)

	for _, uri := range v.items.List() {
		if v.fileMetaInfoPos(uri).Valid() && v.ItemScreen(uri) != nil {
			continue
		}
		v.forcePrimary(uri)
	}
	v.Refresh()
}

// SetZoomLevel switches to the profile of level.
func (v *View) SetZoomLevel(level grid.ZoomLevel) {
	v.profile = grid.ProfileFor(level)
	v.SetGridSize(v.profile.CellSize())
}

// ZoomIn selects the next larger profile.
func (v *View) ZoomIn() grid.ZoomLevel {
	level := v.profile.Level.ZoomIn()
	if level != v.profile.Level {
		v.SetZoomLevel(level)
	}
	return level
}

// ZoomOut selects the next smaller profile.
func (v *View) ZoomOut() grid.ZoomLevel {
	level := v.profile.Level.ZoomOut()
	if level != v.profile.Level {
		v.SetZoomLevel(level)
	}
	return level
}

// MoveItem puts uri on the free cell under the absolute point p and commits it.
func (v *View) MoveItem(uri string, p grid.Point) bool {
	if !v.items.Has(uri) {
		return false
	}
	s := v.ScreenAt(p)
	if s == nil {
		return false
	}
	c := s.ToLocal(p)
	if !s.CellOnScreen(c) {
		return false
	}
	if other := s.occupant(c); other != "" && other != uri {
		return false
	}

	for _, other := range v.screens {
		other.MakeItemGridPosInvalid(uri)
		other.MakeItemMetaPosInvalid(uri)
	}
	delete(v.posCache, uri)
	s.SetItemGridPos(uri, c)
	s.SaveItemWithGlobalPos(uri, s.ToGlobal(c))
	v.floatItems.Remove(uri)
	v.notify()
	return true
}

// MoveItems shifts uris by the offset between the cells under from and to.
// Items whose destination is off-screen or taken are laid out again.
func (v *View) MoveItems(uris []string, from, to grid.Point) {
	if s := v.ScreenAt(from); s != nil {
		from = s.GridCenterPoint(from)
	}
	if s := v.ScreenAt(to); s != nil {
		to = s.GridCenterPoint(to)
	}
	offset := to.Sub(from)

	sources := make(map[string]grid.Point, len(uris))
	var moving []string
	for _, uri := range uris {
		if !v.items.Has(uri) {
			continue
		}
		if p, ok := v.resolvedPosition(uri); ok {
			sources[uri] = p
		}
		moving = append(moving, uri)
	}

	for _, uri := range moving {
		delete(v.posCache, uri)
		for _, s := range v.screens {
			s.MakeItemGridPosInvalid(uri)
			s.MakeItemMetaPosInvalid(uri)
		}
	}

	var needRelayout []string
	for _, uri := range moving {
		src, ok := sources[uri]
		if !ok {
			needRelayout = append(needRelayout, uri)
			continue
		}
		target := src.Add(offset)
		dest := v.ScreenAt(target)
		if dest == nil || !dest.SetItemWithGlobalPos(uri, target) {
			needRelayout = append(needRelayout, uri)
			continue
		}
		dest.SaveItemWithGlobalPos(uri, target)
	}

	if len(needRelayout) > 0 {
		v.RelayoutItems(needRelayout)
	}
	v.SaveItemsPositions()
	v.collectStranded()
	v.notify()
}

// forcePrimary puts uri at the origin of the primary screen regardless of
// what is there.
func (v *View) forcePrimary(uri string) grid.Point {
	target := v.primary
	if target == nil || !target.IsValid() {
		target = v.firstValidScreen()
	}
	if target == nil {
		v.logger.Warn("no screen available for item", "uri", uri)
		return grid.InvalidPoint
	}
	p := target.PutIconOnScreen(uri, target.Origin(), true)
	target.SaveItemWithGlobalPos(uri, p)
	v.logger.Warn("desktop full, forced item onto primary screen", "uri", uri, "screen", target.Name())
	return p
}

func (v *View) firstValidScreen() *Screen {
	for _, s := range v.screens {
		if s.IsValid() {
			return s
		}
	}
	return nil
}

// collectStranded marks items that lost their cell as floating. Stranded
// items nobody remembers are stacked at the primary origin.
func (v *View) collectStranded() {
	for _, uri := range v.items.List() {
		if v.ItemScreen(uri) != nil {
			continue
		}
		v.floatItems.Add(uri)
		if _, ok := v.TryPosition(uri); ok {
			continue
		}
		if target := v.primary; target != nil && target.IsValid() {
			target.seedMetaPos(uri, grid.Cell{})
		}
	}
}
