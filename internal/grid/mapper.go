package grid

// Mapper converts between absolute desktop coordinates and screen-local grid
// cells for one screen.
type Mapper struct {
	Origin   Point
	CellSize Size
}

// NewMapper returns a mapper anchored at the top-left of geometry.
func NewMapper(geometry Rect, cellSize Size) Mapper {
	return Mapper{Origin: geometry.TopLeft(), CellSize: cellSize}
}

// ToGlobal returns the absolute top-left corner of cell c.
func (m Mapper) ToGlobal(c Cell) Point {
	return Point{
		X: m.Origin.X + c.Column*m.CellSize.Width,
		Y: m.Origin.Y + c.Row*m.CellSize.Height,
	}
}

// ToLocal returns the cell containing p. Division truncates toward zero, so
// points left of or above the origin by less than one cell map to column or
// row zero.
func (m Mapper) ToLocal(p Point) Cell {
	if m.CellSize.Empty() {
		return InvalidCell
	}
	d := p.Sub(m.Origin)
	return Cell{Column: d.X / m.CellSize.Width, Row: d.Y / m.CellSize.Height}
}

// CenterOf returns the center of the cell containing p.
func (m Mapper) CenterOf(p Point) Point {
	g := m.ToGlobal(m.ToLocal(p))
	return Point{X: g.X + m.CellSize.Width/2, Y: g.Y + m.CellSize.Height/2}
}

// Capacity returns the highest usable column and row for a screen of the
// given size: floor(size/cell) - 1, clamped at zero.
func Capacity(screen Size, cell Size) (maxColumn, maxRow int) {
	if cell.Empty() {
		return 0, 0
	}
	maxColumn = screen.Width/cell.Width - 1
	maxRow = screen.Height/cell.Height - 1
	if maxColumn < 0 {
		maxColumn = 0
	}
	if maxRow < 0 {
		maxRow = 0
	}
	return maxColumn, maxRow
}
