package mcp

import "github.com/1broseidon/deskgrid/internal/grid"

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Zoom          string `json:"zoom"`
	DesktopDir    string `json:"desktop_dir"`
	PositionsFile string `json:"positions_file"`
	Screens       int    `json:"screens"`
	Primary       string `json:"primary"`
	Items         int    `json:"items"`
	Floating      int    `json:"floating"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ScreenInfo describes one screen and its grid.
type ScreenInfo struct {
	Name      string       `json:"name"`
	Primary   bool         `json:"primary"`
	Valid     bool         `json:"valid"`
	Geometry  grid.Rect    `json:"geometry"`
	Margins   grid.Margins `json:"margins"`
	MaxColumn int          `json:"max_column"`
	MaxRow    int          `json:"max_row"`
	Items     int          `json:"items"`
}

// ListScreensOutput is the output for the list_screens tool.
type ListScreensOutput struct {
	Zoom     string       `json:"zoom"`
	CellSize grid.Size    `json:"cell_size"`
	Screens  []ScreenInfo `json:"screens"`
}

// ListIconsInput is the input for the list_icons tool.
type ListIconsInput struct {
	Screen string `json:"screen,omitempty" jsonschema:"Only list icons on this screen (output name, e.g. HDMI-1)"`
}

// IconInfo describes one placed icon. Rect is the area the icon is drawn in.
type IconInfo struct {
	Name       string    `json:"name"`
	URI        string    `json:"uri"`
	Screen     string    `json:"screen"`
	Column     int       `json:"column"`
	Row        int       `json:"row"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Rect       grid.Rect `json:"rect"`
	Overlapped bool      `json:"overlapped,omitempty"`
}

// ListIconsOutput is the output for the list_icons tool.
type ListIconsOutput struct {
	Icons    []IconInfo `json:"icons"`
	Floating []string   `json:"floating,omitempty"`
}

// GetIconPositionInput is the input for the get_icon_position tool.
type GetIconPositionInput struct {
	Item string `json:"item" jsonschema:"required,File name, path or file:// URI of the desktop entry"`
}

// SetZoomInput is the input for the set_zoom tool.
type SetZoomInput struct {
	Level string `json:"level" jsonschema:"required,Zoom level: small, normal, large, huge, or in/out to step"`
}

// SetZoomOutput is the output for the set_zoom tool.
type SetZoomOutput struct {
	Zoom string `json:"zoom"`
}

// MoveIconInput is the input for the move_icon tool.
type MoveIconInput struct {
	Item   string `json:"item" jsonschema:"required,File name, path or file:// URI of the desktop entry"`
	Screen string `json:"screen" jsonschema:"required,Target screen (output name)"`
	Column int    `json:"column" jsonschema:"Target grid column, 0 is leftmost"`
	Row    int    `json:"row" jsonschema:"Target grid row, 0 is topmost"`
}

// MoveIconsInput is the input for the move_icons tool.
type MoveIconsInput struct {
	Items      []string `json:"items" jsonschema:"required,File names, paths or file:// URIs of the desktop entries to move"`
	FromScreen string   `json:"from_screen" jsonschema:"required,Screen of the reference cell"`
	FromColumn int      `json:"from_column" jsonschema:"Column of the reference cell"`
	FromRow    int      `json:"from_row" jsonschema:"Row of the reference cell"`
	ToScreen   string   `json:"to_screen" jsonschema:"required,Screen the reference cell moves to"`
	ToColumn   int      `json:"to_column" jsonschema:"Column the reference cell moves to"`
	ToRow      int      `json:"to_row" jsonschema:"Row the reference cell moves to"`
}

// MoveIconsOutput is the output for the move_icons tool.
type MoveIconsOutput struct {
	Icons []IconInfo `json:"icons"`
}

// IconAtInput is the input for the icon_at tool.
type IconAtInput struct {
	Screen string `json:"screen" jsonschema:"required,Screen (output name)"`
	Column int    `json:"column" jsonschema:"Grid column, 0 is leftmost"`
	Row    int    `json:"row" jsonschema:"Grid row, 0 is topmost"`
}

// IconAtOutput is the output for the icon_at tool. Name and URI are empty
// when the cell is free.
type IconAtOutput struct {
	Occupied bool   `json:"occupied"`
	Name     string `json:"name,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// RefreshLayoutInput is the input for the refresh_layout tool.
type RefreshLayoutInput struct {
	Rescan bool `json:"rescan,omitempty" jsonschema:"Re-read the desktop directory before repairing the layout"`
}

// RefreshLayoutOutput is the output for the refresh_layout tool.
type RefreshLayoutOutput struct {
	Removed  int `json:"removed"`
	Inserted int `json:"inserted"`
	Items    int `json:"items"`
}
