package platform

import "fmt"

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Insets are pixels reserved on each edge of a display.
type Insets struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Display describes a physical display and its usable work area. A Disabled
// display is connected but switched off and has empty bounds.
type Display struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Primary  bool   `json:"primary"`
	Disabled bool   `json:"disabled,omitempty"`
	Bounds   Rect   `json:"bounds"`
	Usable   Rect   `json:"usable"`
	Reserved Insets `json:"reserved"`
}

// Backend abstracts the screen-topology service of the window system.
type Backend interface {
	// Displays returns the active displays ordered by ID.
	Displays() ([]Display, error)
	PrimaryDisplay() (Display, error)
	// WatchDisplays registers onChange for topology and work area changes.
	// Notifications are delivered from the EventLoop goroutine.
	WatchDisplays(onChange func()) error
	// EventLoop blocks dispatching window-system events until Quit.
	EventLoop()
	Quit()
	Disconnect()
}

// PrimaryOf returns the enabled display flagged primary, or the first
// enabled one.
func PrimaryOf(displays []Display) (Display, error) {
	var first *Display
	for i := range displays {
		d := &displays[i]
		if d.Disabled {
			continue
		}
		if d.Primary {
			return *d, nil
		}
		if first == nil {
			first = d
		}
	}
	if first == nil {
		return Display{}, fmt.Errorf("no displays found")
	}
	return *first, nil
}

func shrink(r Rect, in Insets) Rect {
	out := Rect{
		X:      r.X + in.Left,
		Y:      r.Y + in.Top,
		Width:  r.Width - in.Left - in.Right,
		Height: r.Height - in.Top - in.Bottom,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}
