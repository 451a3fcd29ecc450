package platform

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// StaticBackend serves a fixed display list. It backs headless daemons and
// tests; SetDisplays simulates a hotplug.
type StaticBackend struct {
	mu       sync.Mutex
	displays []Display
	watchers []func()
	quit     chan struct{}
	once     sync.Once
}

var _ Backend = (*StaticBackend)(nil)

func NewStaticBackend(displays []Display) *StaticBackend {
	b := &StaticBackend{quit: make(chan struct{})}
	b.displays = normalize(displays)
	return b
}

func (b *StaticBackend) Displays() ([]Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Display, len(b.displays))
	copy(out, b.displays)
	return out, nil
}

func (b *StaticBackend) PrimaryDisplay() (Display, error) {
	displays, _ := b.Displays()
	return PrimaryOf(displays)
}

func (b *StaticBackend) WatchDisplays(onChange func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers = append(b.watchers, onChange)
	return nil
}

// SetDisplays replaces the display list and notifies watchers.
func (b *StaticBackend) SetDisplays(displays []Display) {
	b.mu.Lock()
	b.displays = normalize(displays)
	watchers := append([]func(){}, b.watchers...)
	b.mu.Unlock()

	for _, fn := range watchers {
		fn()
	}
}

func (b *StaticBackend) EventLoop() {
	<-b.quit
}

func (b *StaticBackend) Quit() {
	b.once.Do(func() { close(b.quit) })
}

func (b *StaticBackend) Disconnect() {
	b.Quit()
}

func normalize(displays []Display) []Display {
	out := make([]Display, len(displays))
	copy(out, displays)
	for i := range out {
		out[i].ID = i
		if out[i].Disabled {
			out[i].Primary = false
			out[i].Bounds, out[i].Usable, out[i].Reserved = Rect{}, Rect{}, Insets{}
			continue
		}
		if out[i].Usable == (Rect{}) {
			out[i].Usable = shrink(out[i].Bounds, out[i].Reserved)
		}
	}
	return out
}

// ParseDisplays parses a comma separated list of NAME:WxH+X+Y entries. A
// trailing '*' on the name marks the primary display and NAME:off describes a
// connected display that is switched off.
//
//	eDP-1*:1920x1080+0+0,HDMI-1:2560x1440+1920+0,DP-2:off
func ParseDisplays(list string) ([]Display, error) {
	var displays []Display
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := parseDisplay(part)
		if err != nil {
			return nil, err
		}
		for _, existing := range displays {
			if existing.Name == d.Name {
				return nil, fmt.Errorf("duplicate display name %q", d.Name)
			}
		}
		d.ID = len(displays)
		displays = append(displays, d)
	}
	if len(displays) == 0 {
		return nil, fmt.Errorf("no displays in %q", list)
	}
	return displays, nil
}

func parseDisplay(s string) (Display, error) {
	name, geom, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Display{}, fmt.Errorf("invalid display %q (expected NAME:WxH+X+Y)", s)
	}
	primary := strings.HasSuffix(name, "*")
	name = strings.TrimSuffix(name, "*")

	if geom == "off" {
		return Display{Name: name, Disabled: true}, nil
	}
	rect, err := parseGeometry(geom)
	if err != nil {
		return Display{}, fmt.Errorf("display %q: %w", name, err)
	}
	return Display{Name: name, Primary: primary, Bounds: rect, Usable: rect}, nil
}

func parseGeometry(s string) (Rect, error) {
	size, offset, _ := strings.Cut(s, "+")
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return Rect{}, fmt.Errorf("invalid geometry %q", s)
	}
	var r Rect
	var err error
	if r.Width, err = strconv.Atoi(w); err != nil || r.Width <= 0 {
		return Rect{}, fmt.Errorf("invalid width in %q", s)
	}
	if r.Height, err = strconv.Atoi(h); err != nil || r.Height <= 0 {
		return Rect{}, fmt.Errorf("invalid height in %q", s)
	}
	if offset != "" {
		x, y, ok := strings.Cut(offset, "+")
		if !ok {
			return Rect{}, fmt.Errorf("invalid offset in %q", s)
		}
		if r.X, err = strconv.Atoi(x); err != nil {
			return Rect{}, fmt.Errorf("invalid x offset in %q", s)
		}
		if r.Y, err = strconv.Atoi(y); err != nil {
			return Rect{}, fmt.Errorf("invalid y offset in %q", s)
		}
	}
	return r, nil
}
