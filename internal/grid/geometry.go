package grid

import "fmt"

// Point is an absolute desktop coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InvalidPoint is returned by lookups that found nothing.
var InvalidPoint = Point{X: -1, Y: -1}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Valid reports whether p is not the sentinel.
func (p Point) Valid() bool {
	return p != InvalidPoint
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Add returns the component-wise sum.
func (s Size) Add(o Size) Size {
	return Size{Width: s.Width + o.Width, Height: s.Height + o.Height}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is a screen region in absolute coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TopLeft returns the origin of the rectangle.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the dimensions of the rectangle.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Translate returns r moved by p.
func (r Rect) Translate(p Point) Rect {
	r.X += p.X
	r.Y += p.Y
	return r
}

// Shrink removes panel margins from each side. The result is never smaller than 1x1.
func (r Rect) Shrink(m Margins) Rect {
	out := Rect{
		X:      r.X + m.Left,
		Y:      r.Y + m.Top,
		Width:  r.Width - m.Left - m.Right,
		Height: r.Height - m.Top - m.Bottom,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Margins are the space reserved by panels and docks on each screen edge.
type Margins struct {
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
}

// IsZero reports whether no margin is set.
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Cell is a screen-local grid index.
type Cell struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// InvalidCell means "no position".
var InvalidCell = Cell{Column: -1, Row: -1}

// Valid reports whether c is not the sentinel.
func (c Cell) Valid() bool {
	return c != InvalidCell
}

// Key is the "col x row" string used to group items sharing a cell.
func (c Cell) Key() string {
	return fmt.Sprintf("%dx%d", c.Column, c.Row)
}

func (c Cell) String() string {
	return fmt.Sprintf("[%d,%d]", c.Column, c.Row)
}
