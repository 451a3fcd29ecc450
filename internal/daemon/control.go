package daemon

import (
	"time"

	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

// Controller exposes d over the IPC protocol.
func Controller(d *Desktop) ipc.Controller {
	return controller{d: d}
}

type controller struct {
	d *Desktop
}

func (c controller) Status() ipc.StatusData {
	st := c.d.Status()
	return ipc.StatusData{
		DaemonRunning: true,
		UptimeSeconds: int64(time.Since(st.Started).Seconds()),
		Zoom:          st.Zoom.String(),
		DesktopDir:    st.DesktopDir,
		PositionsFile: st.PositionsFile,
		Screens:       st.Screens,
		Primary:       st.Primary,
		Items:         st.Items,
		Floating:      st.Floating,
	}
}

func (c controller) Monitors() ([]ipc.MonitorInfo, error) {
	displays, margins := c.d.Displays()
	out := make([]ipc.MonitorInfo, len(displays))
	for i, disp := range displays {
		out[i] = ipc.MonitorFromDisplay(disp, margins[i])
	}
	return out, nil
}

func (c controller) Layout() ipc.LayoutData {
	return c.d.Layout()
}

func (c controller) SetZoom(level string) (string, error) {
	l, err := grid.ParseZoomLevel(level)
	if err != nil {
		return "", err
	}
	c.d.SetZoom(l)
	return l.String(), nil
}

func (c controller) ZoomIn() string {
	return c.d.ZoomIn().String()
}

func (c controller) ZoomOut() string {
	return c.d.ZoomOut().String()
}

func (c controller) Refresh() {
	c.d.Refresh()
}

func (c controller) Rescan() (ipc.RescanData, error) {
	change, err := c.d.Rescan()
	if err != nil {
		return ipc.RescanData{}, err
	}
	return ipc.RescanData{Removed: change.Removed, Inserted: change.Inserted}, nil
}

func (c controller) MoveItem(req ipc.MoveItemPayload) (ipc.MoveItemData, error) {
	return c.d.MoveItem(req.Item, req.Screen, grid.Cell{Column: req.Column, Row: req.Row})
}

func (c controller) MoveItems(req ipc.MoveItemsPayload) (ipc.MoveItemsData, error) {
	moved, err := c.d.MoveItems(req.Items,
		req.FromScreen, grid.Cell{Column: req.FromColumn, Row: req.FromRow},
		req.ToScreen, grid.Cell{Column: req.ToColumn, Row: req.ToRow})
	if err != nil {
		return ipc.MoveItemsData{}, err
	}
	return ipc.MoveItemsData{Items: moved}, nil
}

func (c controller) PlaceItem(item string) (ipc.PlacementData, error) {
	return c.d.PlaceItem(item)
}

func (c controller) ItemAt(req ipc.ItemAtPayload) (ipc.ItemAtData, error) {
	uri, err := c.d.ItemAt(req.Screen, grid.Cell{Column: req.Column, Row: req.Row})
	if err != nil {
		return ipc.ItemAtData{}, err
	}
	return ipc.ItemAtData{URI: uri}, nil
}

func (c controller) Reload() error {
	return c.d.Reload()
}
