package grid

import (
	"fmt"
	"math"
	"strings"
)

// ZoomLevel selects one of the fixed icon/grid size presets. The zero value
// is ZoomInvalid, which resolves to DefaultZoomLevel.
type ZoomLevel int

const (
	ZoomInvalid ZoomLevel = iota
	ZoomSmall
	ZoomNormal
	ZoomLarge
	ZoomHuge
)

// DefaultZoomLevel is used when nothing else is configured.
const DefaultZoomLevel = ZoomNormal

// baseMargin is the item margin at ZoomNormal; other levels scale it.
var baseMargin = Point{X: 10, Y: 5}

// Profile describes the sizes derived from a zoom level.
type Profile struct {
	Level       ZoomLevel
	IconSize    Size
	GridSize    Size
	MarginScale float64
}

var profiles = map[ZoomLevel]Profile{
	ZoomSmall:  {Level: ZoomSmall, IconSize: Size{24, 24}, GridSize: Size{64, 74}, MarginScale: 0.8},
	ZoomNormal: {Level: ZoomNormal, IconSize: Size{48, 48}, GridSize: Size{96, 106}, MarginScale: 1.0},
	ZoomLarge:  {Level: ZoomLarge, IconSize: Size{64, 64}, GridSize: Size{115, 145}, MarginScale: 1.2},
	ZoomHuge:   {Level: ZoomHuge, IconSize: Size{96, 96}, GridSize: Size{140, 180}, MarginScale: 1.4},
}

// ProfileFor returns the profile of level. Unknown levels fall back to
// DefaultZoomLevel.
func ProfileFor(level ZoomLevel) Profile {
	return profiles[level.Resolve()]
}

// Margin is the offset between a cell's corner and the item drawn inside it.
func (p Profile) Margin() Point {
	return Point{
		X: int(math.Round(float64(baseMargin.X) * p.MarginScale)),
		Y: int(math.Round(float64(baseMargin.Y) * p.MarginScale)),
	}
}

// CellSize is the grid pitch used by screens: the grid size plus the margin.
func (p Profile) CellSize() Size {
	m := p.Margin()
	return Size{Width: p.GridSize.Width + m.X, Height: p.GridSize.Height + m.Y}
}

// Valid reports whether l is one of the presets.
func (l ZoomLevel) Valid() bool {
	return l >= ZoomSmall && l <= ZoomHuge
}

// Resolve returns l, or DefaultZoomLevel when l is not a preset.
func (l ZoomLevel) Resolve() ZoomLevel {
	if l.Valid() {
		return l
	}
	return DefaultZoomLevel
}

// ZoomIn returns the next larger level, or l itself at ZoomHuge.
func (l ZoomLevel) ZoomIn() ZoomLevel {
	l = l.Resolve()
	if l < ZoomHuge {
		return l + 1
	}
	return ZoomHuge
}

// ZoomOut returns the next smaller level, or l itself at ZoomSmall.
func (l ZoomLevel) ZoomOut() ZoomLevel {
	l = l.Resolve()
	if l > ZoomSmall {
		return l - 1
	}
	return ZoomSmall
}

func (l ZoomLevel) String() string {
	switch l {
	case ZoomSmall:
		return "small"
	case ZoomNormal:
		return "normal"
	case ZoomLarge:
		return "large"
	case ZoomHuge:
		return "huge"
	default:
		return fmt.Sprintf("zoom(%d)", int(l))
	}
}

// ZoomLevelNames lists the accepted zoom level names, smallest first.
func ZoomLevelNames() []string {
	return []string{"small", "normal", "large", "huge"}
}

// ParseZoomLevel converts a level name to a ZoomLevel.
func ParseZoomLevel(s string) (ZoomLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return ZoomSmall, nil
	case "normal", "":
		return ZoomNormal, nil
	case "large":
		return ZoomLarge, nil
	case "huge":
		return ZoomHuge, nil
	default:
		return ZoomNormal, fmt.Errorf("unknown zoom level %q (expected one of %s)", s, strings.Join(ZoomLevelNames(), ", "))
	}
}
