package iconview

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/deskgrid/internal/grid"
)

// Output is the OS-side description of a physical screen.
type Output struct {
	Name     string
	Geometry grid.Rect
	// Margins are the panel/dock reservations reported for this output.
	Margins grid.Margins
}

// PositionStore persists remembered grid cells per screen name.
type PositionStore interface {
	Load(screen, uri string) (grid.Cell, bool)
	Save(screen, uri string, cell grid.Cell) error
	Forget(screen, uri string) error
}

// ScreenEvents are the callbacks a Screen raises towards its owner.
type ScreenEvents struct {
	// Changed fires after the screen's usable geometry changed.
	Changed func(s *Screen)
	// VisibleChanged fires when the output is destroyed (false) or rebound (true).
	VisibleChanged func(s *Screen, visible bool)
}

// ScreenOptions configure a new Screen.
type ScreenOptions struct {
	Store  PositionStore
	Events ScreenEvents
	Logger *slog.Logger
}

// ItemPosition pairs an item with its absolute position.
type ItemPosition struct {
	URI      string
	Position grid.Point
}

// Screen owns the icon grid of one physical screen: the live occupancy table
// and the remembered (meta) positions.
type Screen struct {
	output   *Output
	name     string
	geometry grid.Rect
	gridSize grid.Size
	margins  grid.Margins

	maxColumn int
	maxRow    int

	items     map[string]grid.Cell
	metaPoses map[string]grid.Cell

	store  PositionStore
	events ScreenEvents
	logger *slog.Logger
}

// NewScreen creates a slot for output using gridSize as the cell pitch.
// A nil output yields an invalid slot on which every placement fails.
func NewScreen(output *Output, gridSize grid.Size, opts ScreenOptions) *Screen {
	s := &Screen{
		gridSize:  gridSize,
		items:     make(map[string]grid.Cell),
		metaPoses: make(map[string]grid.Cell),
		store:     opts.Store,
		events:    opts.Events,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if output == nil {
		return s
	}

	out := *output
	s.output = &out
	s.name = out.Name
	s.margins = out.Margins
	s.geometry = out.Geometry.Shrink(s.margins)
	s.recalculateGrid()
	return s
}

// IsValid reports whether the slot is still backed by an OS screen.
func (s *Screen) IsValid() bool {
	return s != nil && s.output != nil
}

// Name returns the output name. It survives invalidation.
func (s *Screen) Name() string {
	return s.name
}

// Output returns a copy of the backing output, or nil when invalid.
func (s *Screen) Output() *Output {
	if s.output == nil {
		return nil
	}
	out := *s.output
	return &out
}

// Geometry returns the usable geometry (output geometry minus panel margins).
func (s *Screen) Geometry() grid.Rect {
	return s.geometry
}

// GridSize returns the cell pitch.
func (s *Screen) GridSize() grid.Size {
	return s.gridSize
}

// Margins returns the panel margins currently applied.
func (s *Screen) Margins() grid.Margins {
	return s.margins
}

// MaxColumn is the highest usable column index.
func (s *Screen) MaxColumn() int {
	return s.maxColumn
}

// MaxRow is the highest usable row index.
func (s *Screen) MaxRow() int {
	return s.maxRow
}

// Mapper returns the coordinate mapper for the current geometry and grid size.
func (s *Screen) Mapper() grid.Mapper {
	return grid.NewMapper(s.geometry, s.gridSize)
}

// Origin is the absolute top-left corner of cell (0,0).
func (s *Screen) Origin() grid.Point {
	return s.geometry.TopLeft()
}

// ToGlobal converts a cell to its absolute top-left corner.
func (s *Screen) ToGlobal(c grid.Cell) grid.Point {
	return s.Mapper().ToGlobal(c)
}

// ToLocal converts an absolute point to the cell containing it.
func (s *Screen) ToLocal(p grid.Point) grid.Cell {
	return s.Mapper().ToLocal(p)
}

// CellOnScreen reports whether c lies within [0,maxColumn]x[0,maxRow].
func (s *Screen) CellOnScreen(c grid.Cell) bool {
	return c.Column >= 0 && c.Column <= s.maxColumn && c.Row >= 0 && c.Row <= s.maxRow
}

// PosIsOnScreen reports whether an absolute point lies inside this screen.
func (s *Screen) PosIsOnScreen(p grid.Point) bool {
	if !s.IsValid() {
		return false
	}
	return s.geometry.Contains(p)
}

func (s *Screen) recalculateGrid() {
	s.maxColumn, s.maxRow = grid.Capacity(s.geometry.Size(), s.gridSize)
}

// occupant returns the item occupying c, or "" when the cell is free.
func (s *Screen) occupant(c grid.Cell) string {
	found := ""
	for uri, cell := range s.items {
		if cell != c {
			continue
		}
		// Keep the result stable if the table ever holds duplicates.
		if found == "" || uri < found {
			found = uri
		}
	}
	return found
}

// PlaceItem searches for a free cell starting at start and records uri there.
// The scan walks down the current column, then continues at row 0 of the next
// column. Without force a full grid yields grid.InvalidCell; with force the
// item claims (0,0), evicting whatever was there.
func (s *Screen) PlaceItem(uri string, start grid.Cell, force bool) grid.Cell {
	if !s.IsValid() || uri == "" {
		return grid.InvalidCell
	}

	delete(s.items, uri)

	x, y := start.Column, start.Row
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if y > s.maxRow {
		x, y = x+1, 0
	}

	for x <= s.maxColumn && y <= s.maxRow {
		c := grid.Cell{Column: x, Row: y}
		if s.occupant(c) == "" {
			s.items[uri] = c
			s.logger.Debug("item placed", "screen", s.name, "uri", uri, "cell", c.String())
			return c
		}
		if y+1 <= s.maxRow {
			y++
			continue
		}
		y = 0
		if x+1 > s.maxColumn {
			break
		}
		x++
	}

	if force {
		origin := grid.Cell{}
		if evicted := s.occupant(origin); evicted != "" {
			delete(s.items, evicted)
			s.logger.Debug("item evicted by forced placement", "screen", s.name, "uri", evicted, "by", uri)
		}
		s.items[uri] = origin
		return origin
	}

	return grid.InvalidCell
}

// PutIconOnScreen places uri starting from the cell containing the absolute
// point start and returns the absolute position it landed on.
func (s *Screen) PutIconOnScreen(uri string, start grid.Point, force bool) grid.Point {
	if !s.IsValid() {
		return grid.InvalidPoint
	}
	c := s.PlaceItem(uri, s.ToLocal(start), force)
	if !c.Valid() {
		return grid.InvalidPoint
	}
	return s.ToGlobal(c)
}

// PutIconsOnScreen places uris in order, each scan continuing from the cell
// the previous item took. It returns the items that did not fit.
func (s *Screen) PutIconsOnScreen(uris []string, force bool) []string {
	var notPut []string
	cursor := grid.Cell{}
	for _, uri := range uris {
		c := s.PlaceItem(uri, cursor, force)
		if !c.Valid() {
			notPut = append(notPut, uri)
			cursor = grid.Cell{}
			continue
		}
		cursor = c
	}
	return notPut
}

// ClearItems empties the occupancy table. Meta positions are kept.
func (s *Screen) ClearItems() {
	s.items = make(map[string]grid.Cell)
}

// MakeItemGridPosInvalid drops uri from the occupancy table.
func (s *Screen) MakeItemGridPosInvalid(uri string) {
	delete(s.items, uri)
}

// MakeItemMetaPosInvalid drops uri from the meta table and the store.
func (s *Screen) MakeItemMetaPosInvalid(uri string) {
	delete(s.metaPoses, uri)
	if s.store != nil && s.name != "" {
		if err := s.store.Forget(s.name, uri); err != nil {
			s.logger.Warn("failed to forget item position", "screen", s.name, "uri", uri, "error", err)
		}
	}
}

// SetItemGridPos assigns uri to c without searching. It fails when c is off
// the grid or held by another item, and always on an invalid screen.
func (s *Screen) SetItemGridPos(uri string, c grid.Cell) bool {
	if !s.IsValid() || uri == "" {
		return false
	}
	if cur, ok := s.items[uri]; ok && cur == c {
		return true
	}
	if !s.CellOnScreen(c) {
		return false
	}
	if other := s.occupant(c); other != "" && other != uri {
		return false
	}
	s.items[uri] = c
	return true
}

// SetItemWithGlobalPos assigns uri to the cell under the absolute point p.
func (s *Screen) SetItemWithGlobalPos(uri string, p grid.Point) bool {
	if !s.PosIsOnScreen(p) {
		return false
	}
	return s.SetItemGridPos(uri, s.ToLocal(p))
}

// SaveItemWithGlobalPos remembers the cell under p as the meta position of uri.
func (s *Screen) SaveItemWithGlobalPos(uri string, p grid.Point) bool {
	if !s.PosIsOnScreen(p) {
		return false
	}
	return s.saveMetaPos(uri, s.ToLocal(p))
}

func (s *Screen) saveMetaPos(uri string, c grid.Cell) bool {
	if !s.IsValid() || uri == "" || !c.Valid() {
		return false
	}
	s.metaPoses[uri] = c
	if s.store != nil {
		if err := s.store.Save(s.name, uri, c); err != nil {
			// The in-memory meta table stays authoritative.
			s.logger.Warn("failed to persist item position", "screen", s.name, "uri", uri, "error", err)
		}
	}
	return true
}

// seedMetaPos records a remembered cell without writing it back to the store.
func (s *Screen) seedMetaPos(uri string, c grid.Cell) {
	if uri == "" || !c.Valid() {
		return
	}
	s.metaPoses[uri] = c
}

func (s *Screen) metaPos(uri string) grid.Cell {
	if c, ok := s.metaPoses[uri]; ok {
		return c
	}
	return grid.InvalidCell
}

// ItemGlobalPosition returns the absolute position of uri, preferring the
// occupancy table over the meta table.
func (s *Screen) ItemGlobalPosition(uri string) grid.Point {
	if !s.IsValid() || uri == "" {
		return grid.InvalidPoint
	}
	if c, ok := s.items[uri]; ok {
		return s.ToGlobal(c)
	}
	if c := s.metaPos(uri); c.Valid() {
		return s.ToGlobal(c)
	}
	return grid.InvalidPoint
}

// ItemGridPosition returns the absolute position of uri from the occupancy table only.
func (s *Screen) ItemGridPosition(uri string) grid.Point {
	if c, ok := s.items[uri]; ok && s.IsValid() {
		return s.ToGlobal(c)
	}
	return grid.InvalidPoint
}

// ItemCell returns the occupied cell of uri.
func (s *Screen) ItemCell(uri string) (grid.Cell, bool) {
	c, ok := s.items[uri]
	return c, ok
}

// ItemMetaPosition returns the remembered absolute position of uri when that
// cell is not currently taken.
func (s *Screen) ItemMetaPosition(uri string) grid.Point {
	c := s.metaPos(uri)
	if !c.Valid() || !s.IsValid() {
		return grid.InvalidPoint
	}
	if other := s.occupant(c); other != "" && other != uri {
		return grid.InvalidPoint
	}
	return s.ToGlobal(c)
}

// ItemAt returns the item occupying the cell under p, or "".
func (s *Screen) ItemAt(p grid.Point) string {
	if !s.IsValid() {
		return ""
	}
	c := s.ToLocal(p)
	if !s.CellOnScreen(c) {
		return ""
	}
	return s.occupant(c)
}

// GridCenterPoint snaps p to the center of its cell when p is on this screen.
func (s *Screen) GridCenterPoint(p grid.Point) grid.Point {
	if !s.PosIsOnScreen(p) {
		return p
	}
	return s.Mapper().CenterOf(p)
}

// HasItem reports whether uri is in the occupancy table.
func (s *Screen) HasItem(uri string) bool {
	_, ok := s.items[uri]
	return ok
}

// AllItems lists every occupancy entry, sorted.
func (s *Screen) AllItems() []string {
	return sortedKeys(s.items)
}

// MetaItems lists every remembered entry, sorted.
func (s *Screen) MetaItems() []string {
	return sortedKeys(s.metaPoses)
}

// ItemsOutOfGrid lists items whose cell is beyond the current grid.
func (s *Screen) ItemsOutOfGrid() []string {
	var out []string
	for _, uri := range sortedKeys(s.items) {
		if !s.CellOnScreen(s.items[uri]) {
			out = append(out, uri)
		}
	}
	return out
}

// ItemsVisible lists items whose cell is on the grid.
func (s *Screen) ItemsVisible() []string {
	if !s.IsValid() {
		return nil
	}
	var out []string
	for _, uri := range sortedKeys(s.items) {
		if s.CellOnScreen(s.items[uri]) {
			out = append(out, uri)
		}
	}
	return out
}

// ItemsOverlapped lists every item beyond the first that shares a cell with another.
func (s *Screen) ItemsOverlapped() []string {
	var out []string
	seen := make(map[string]bool)
	for _, uri := range sortedKeys(s.items) {
		key := s.items[uri].Key()
		if seen[key] {
			out = append(out, uri)
		}
		seen[key] = true
	}
	return out
}

// ItemsWithPositions returns every occupancy entry with its absolute position.
func (s *Screen) ItemsWithPositions() []ItemPosition {
	out := make([]ItemPosition, 0, len(s.items))
	for _, uri := range sortedKeys(s.items) {
		out = append(out, ItemPosition{URI: uri, Position: s.ToGlobal(s.items[uri])})
	}
	return out
}

// Refresh re-places items that are off the grid or overlapping.
func (s *Screen) Refresh() {
	if !s.IsValid() {
		return
	}

	var wrong []string
	marked := make(map[string]bool)
	for _, uri := range append(s.ItemsOutOfGrid(), s.ItemsOverlapped()...) {
		if !marked[uri] {
			marked[uri] = true
			wrong = append(wrong, uri)
		}
	}
	if len(wrong) == 0 {
		return
	}

	for _, uri := range wrong {
		s.MakeItemGridPosInvalid(uri)
	}

	cursor := grid.Cell{}
	for _, uri := range wrong {
		c := s.PlaceItem(uri, cursor, false)
		if !c.Valid() {
			s.logger.Warn("grid full during refresh, forcing item to origin", "screen", s.name, "uri", uri)
			c = s.PlaceItem(uri, grid.Cell{}, true)
		}
		cursor = c
	}
}

// SwapScreen exchanges occupancy and meta tables with other.
func (s *Screen) SwapScreen(other *Screen) {
	if other == nil || other == s {
		return
	}
	s.items, other.items = other.items, s.items
	s.metaPoses, other.metaPoses = other.metaPoses, s.metaPoses
}

// RebindScreen attaches the slot to a new output and re-derives its geometry.
func (s *Screen) RebindScreen(output *Output) {
	if output == nil {
		return
	}
	out := *output
	s.output = &out
	s.name = out.Name
	s.margins = out.Margins
	s.geometry = out.Geometry.Shrink(s.margins)
	s.recalculateGrid()

	if s.events.VisibleChanged != nil {
		s.events.VisibleChanged(s, true)
	}
}

// Invalidate marks the backing output as destroyed.
func (s *Screen) Invalidate() {
	if s.output == nil {
		return
	}
	s.output = nil
	if s.events.VisibleChanged != nil {
		s.events.VisibleChanged(s, false)
	}
}

// OnGeometryChanged reacts to a new output geometry. Empty geometries are ignored.
func (s *Screen) OnGeometryChanged(geometry grid.Rect) {
	if geometry.Empty() || !s.IsValid() {
		return
	}
	s.output.Geometry = geometry
	s.geometry = geometry.Shrink(s.margins)
	s.recalculateGrid()

	// An owner reconciles across screens; a lone slot repairs itself.
	if s.events.Changed != nil {
		s.events.Changed(s)
		return
	}
	s.Refresh()
}

// SetGridSize changes the cell pitch. Empty sizes are ignored.
func (s *Screen) SetGridSize(size grid.Size) {
	if size.Empty() {
		return
	}
	s.gridSize = size
	s.recalculateGrid()
}

// SetPanelMargins re-derives the usable geometry from the output geometry.
func (s *Screen) SetPanelMargins(m grid.Margins) {
	s.margins = m
	if s.output != nil {
		s.output.Margins = m
		s.geometry = s.output.Geometry.Shrink(m)
	}
	s.recalculateGrid()

	if s.events.Changed != nil {
		s.events.Changed(s)
	}
}

func sortedKeys(m map[string]grid.Cell) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
