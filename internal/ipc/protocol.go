package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/platform"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandGetLayout   CommandType = "GET_LAYOUT"
	CommandSetZoom     CommandType = "SET_ZOOM"
	CommandZoomIn      CommandType = "ZOOM_IN"
	CommandZoomOut     CommandType = "ZOOM_OUT"
	CommandRefresh     CommandType = "REFRESH"
	CommandRescan      CommandType = "RESCAN"
	CommandMoveItem    CommandType = "MOVE_ITEM"
	CommandMoveItems   CommandType = "MOVE_ITEMS"
	CommandPlaceItem   CommandType = "PLACE_ITEM"
	CommandItemAt      CommandType = "ITEM_AT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Zoom          string `json:"zoom"`
	DesktopDir    string `json:"desktop_dir"`
	PositionsFile string `json:"positions_file"`
	Screens       int    `json:"screens"`
	Primary       string `json:"primary"`
	Items         int    `json:"items"`
	Floating      int    `json:"floating"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Primary  bool         `json:"primary"`
	Disabled bool         `json:"disabled,omitempty"`
	X        int          `json:"x"`
	Y        int          `json:"y"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Margins  grid.Margins `json:"margins"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// ZoomData is returned by SET_ZOOM, ZOOM_IN and ZOOM_OUT.
type ZoomData struct {
	Zoom string `json:"zoom"`
}

type SetZoomPayload struct {
	Level string `json:"level"`
}

// RescanData reports how many rows a RESCAN removed and inserted.
type RescanData struct {
	Removed  int `json:"removed"`
	Inserted int `json:"inserted"`
}

// MoveItemPayload moves Item (URI, path or file name) to a cell of Screen.
type MoveItemPayload struct {
	Item   string `json:"item"`
	Screen string `json:"screen"`
	Column int    `json:"column"`
	Row    int    `json:"row"`
}

// MoveItemsPayload shifts Items by the offset between the From cell of
// FromScreen and the To cell of ToScreen.
type MoveItemsPayload struct {
	Items      []string `json:"items"`
	FromScreen string   `json:"from_screen"`
	FromColumn int      `json:"from_column"`
	FromRow    int      `json:"from_row"`
	ToScreen   string   `json:"to_screen"`
	ToColumn   int      `json:"to_column"`
	ToRow      int      `json:"to_row"`
}

// MoveItemsData is returned by MOVE_ITEMS.
type MoveItemsData struct {
	Items []iconview.Placement `json:"items"`
}

type PlaceItemPayload struct {
	Item string `json:"item"`
}

// PlacementData is returned by PLACE_ITEM.
type PlacementData = iconview.Placement

type ItemAtPayload struct {
	Screen string `json:"screen"`
	Column int    `json:"column"`
	Row    int    `json:"row"`
}

// ItemAtData is returned by ITEM_AT. URI is empty for a free cell.
type ItemAtData struct {
	URI string `json:"uri,omitempty"`
}

// LayoutData is returned by GET_LAYOUT.
type LayoutData = iconview.Layout

// MoveItemData is returned by MOVE_ITEM.
type MoveItemData = iconview.ItemLayout

// MonitorFromDisplay converts a platform display and the margins applied to it.
func MonitorFromDisplay(d platform.Display, margins grid.Margins) MonitorInfo {
	return MonitorInfo{
		ID:       d.ID,
		Name:     d.Name,
		Primary:  d.Primary,
		Disabled: d.Disabled,
		X:        d.Bounds.X,
		Y:        d.Bounds.Y,
		Width:    d.Bounds.Width,
		Height:   d.Bounds.Height,
		Margins:  margins,
	}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
