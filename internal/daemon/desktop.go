package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/grid"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/platform"
	"github.com/1broseidon/deskgrid/internal/positions"
)

// Options configure a Desktop.
type Options struct {
	Config  *config.Config
	Backend platform.Backend
	Logger  *slog.Logger
	// LoadConfig is used by Reload. Defaults to config.Load.
	LoadConfig func() (*config.Config, error)
}

// Status is a point-in-time summary of the desktop.
type Status struct {
	Started       time.Time
	Zoom          grid.ZoomLevel
	DesktopDir    string
	PositionsFile string
	Screens       int
	Primary       string
	Items         int
	Floating      int
}

// Desktop owns the icon layout and serialises every entry point into it.
type Desktop struct {
	mu         sync.Mutex
	cfg        *config.Config
	backend    platform.Backend
	logger     *slog.Logger
	loadConfig func() (*config.Config, error)
	started    time.Time

	model    *desktopdir.Model
	store    *positions.Store
	view     *iconview.View
	displays []platform.Display
	updates  int

	topology chan struct{}
}

// NewDesktop opens the positions file and builds an empty layout. Call
// SyncTopology and Rescan to populate it.
func NewDesktop(opts Options) (*Desktop, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("display backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}

	dir, err := cfg.ResolvedDesktopDir()
	if err != nil {
		return nil, err
	}
	positionsFile, err := cfg.ResolvedPositionsFile()
	if err != nil {
		return nil, err
	}
	store, err := positions.Open(positionsFile)
	if err != nil {
		return nil, err
	}

	d := &Desktop{
		cfg:        cfg,
		backend:    opts.Backend,
		logger:     logger,
		loadConfig: loadConfig,
		started:    time.Now(),
		model:      desktopdir.New(dir, cfg.ShowHidden),
		store:      store,
		topology:   make(chan struct{}, 1),
	}
	d.view = iconview.NewView(iconview.Options{
		Model:        d.model,
		Store:        store,
		Logger:       logger.With("component", "iconview"),
		ZoomLevel:    cfg.Zoom(),
		LegacyQuirks: cfg.LegacyLayoutQuirks,
		OnUpdate:     func() { d.updates++ },
	})
	return d, nil
}

// Dir returns the desktop directory being laid out.
func (d *Desktop) Dir() string {
	return d.model.Dir()
}

// Config returns the active configuration.
func (d *Desktop) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SyncTopology reads the backend's displays and reconciles the screens.
func (d *Desktop) SyncTopology() error {
	displays, err := d.backend.Displays()
	if err != nil {
		return fmt.Errorf("failed to read displays: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.applyDisplaysLocked(displays)
	return nil
}

// ApplyDisplays reconciles the screens against displays.
func (d *Desktop) ApplyDisplays(displays []platform.Display) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applyDisplaysLocked(displays)
}

func (d *Desktop) applyDisplaysLocked(displays []platform.Display) {
	d.displays = append([]platform.Display(nil), displays...)

	outputs := make([]iconview.Output, 0, len(displays))
	for _, disp := range displays {
		if disp.Disabled {
			outputs = append(outputs, iconview.Output{Name: disp.Name})
			continue
		}
		outputs = append(outputs, iconview.Output{
			Name:     disp.Name,
			Geometry: grid.Rect{X: disp.Bounds.X, Y: disp.Bounds.Y, Width: disp.Bounds.Width, Height: disp.Bounds.Height},
			Margins:  d.marginsLocked(disp),
		})
	}
	primaryName := ""
	if primary, err := platform.PrimaryOf(displays); err == nil {
		primaryName = primary.Name
	}

	d.logger.Info("applying screen topology", "screens", len(outputs), "primary", primaryName)
	d.view.SyncOutputs(outputs, primaryName)
	d.flushLocked()
}

func (d *Desktop) marginsLocked(disp platform.Display) grid.Margins {
	if disp.Disabled {
		return grid.Margins{}
	}
	m := d.cfg.MarginsFor(disp.Name)
	if d.cfg.UseDockStruts {
		m.Top += disp.Reserved.Top
		m.Bottom += disp.Reserved.Bottom
		m.Left += disp.Reserved.Left
		m.Right += disp.Reserved.Right
	}
	return m
}

// TopologyChanged schedules a SyncTopology. It never blocks and is safe to
// call from the window-system event loop.
func (d *Desktop) TopologyChanged() {
	select {
	case d.topology <- struct{}{}:
	default:
	}
}

// Rescan brings the item model up to date with the desktop directory.
func (d *Desktop) Rescan() (desktopdir.Change, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	change, err := d.model.Rescan(d.view)
	if err != nil {
		return change, err
	}
	if !change.Empty() {
		d.logger.Debug("desktop rescanned", "removed", change.Removed, "inserted", change.Inserted)
	}
	d.flushLocked()
	return change, nil
}

// SetZoom switches the zoom level.
func (d *Desktop) SetZoom(level grid.ZoomLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setZoomLocked(level)
}

func (d *Desktop) setZoomLocked(level grid.ZoomLevel) {
	if d.view.ZoomProfile().Level == level {
		return
	}
	d.logger.Info("zoom level changed", "from", d.view.ZoomProfile().Level, "to", level)
	d.view.SetZoomLevel(level)
	d.cfg.ZoomLevel = level.String()
	d.flushLocked()
}

// ZoomIn selects the next larger zoom level and returns it.
func (d *Desktop) ZoomIn() grid.ZoomLevel {
	d.mu.Lock()
	defer d.mu.Unlock()
	level := d.view.ZoomProfile().Level.ZoomIn()
	d.setZoomLocked(level)
	return level
}

// ZoomOut selects the next smaller zoom level and returns it.
func (d *Desktop) ZoomOut() grid.ZoomLevel {
	d.mu.Lock()
	defer d.mu.Unlock()
	level := d.view.ZoomProfile().Level.ZoomOut()
	d.setZoomLocked(level)
	return level
}

// Refresh repairs every screen and commits the resulting positions.
func (d *Desktop) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.Refresh()
	d.flushLocked()
}

// MoveItem moves the item named by ref (URI, path or file name) to cell on
// the named screen.
func (d *Desktop) MoveItem(ref, screen string, cell grid.Cell) (iconview.ItemLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	uri, ok := d.model.Resolve(ref)
	if !ok {
		return iconview.ItemLayout{}, fmt.Errorf("unknown item %q", ref)
	}
	p, err := d.cellPointLocked(screen, cell)
	if err != nil {
		return iconview.ItemLayout{}, err
	}
	if !d.view.MoveItem(uri, p) {
		return iconview.ItemLayout{}, fmt.Errorf("cell %s on %s is taken", cell, screen)
	}
	d.flushLocked()
	pl, _ := d.view.Placement(uri)
	return pl.ItemLayout, nil
}

// PlaceItem returns where the item named by ref lives, placing it first when
// it has no cell yet.
func (d *Desktop) PlaceItem(ref string) (iconview.Placement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	uri, ok := d.model.Resolve(ref)
	if !ok {
		return iconview.Placement{}, fmt.Errorf("unknown item %q", ref)
	}
	d.view.EnsurePlaced(uri)
	pl, ok := d.view.Placement(uri)
	if !ok {
		return iconview.Placement{}, fmt.Errorf("no screen can hold %q", ref)
	}
	d.flushLocked()
	return pl, nil
}

// MoveItems shifts the items named by refs by the offset between cell from
// on fromScreen and cell to on toScreen. Items that do not fit at their
// destination are laid out again.
func (d *Desktop) MoveItems(refs []string, fromScreen string, from grid.Cell, toScreen string, to grid.Cell) ([]iconview.Placement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(refs) == 0 {
		return nil, fmt.Errorf("no items to move")
	}
	uris := make([]string, 0, len(refs))
	for _, ref := range refs {
		uri, ok := d.model.Resolve(ref)
		if !ok {
			return nil, fmt.Errorf("unknown item %q", ref)
		}
		uris = append(uris, uri)
	}
	fromPoint, err := d.cellPointLocked(fromScreen, from)
	if err != nil {
		return nil, err
	}
	toPoint, err := d.cellPointLocked(toScreen, to)
	if err != nil {
		return nil, err
	}

	d.view.MoveItems(uris, fromPoint, toPoint)
	d.flushLocked()

	out := make([]iconview.Placement, 0, len(uris))
	for _, uri := range uris {
		if pl, ok := d.view.Placement(uri); ok {
			out = append(out, pl)
		}
	}
	return out, nil
}

// ItemAt returns the URI of the item drawn over cell on screen, or "".
func (d *Desktop) ItemAt(screen string, cell grid.Cell) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.cellPointLocked(screen, cell)
	if err != nil {
		return "", err
	}
	s := d.view.Screen(screen)
	return d.view.ItemAt(s.GridCenterPoint(p)), nil
}

func (d *Desktop) cellPointLocked(screen string, cell grid.Cell) (grid.Point, error) {
	s := d.view.Screen(screen)
	if s == nil || !s.IsValid() {
		return grid.InvalidPoint, fmt.Errorf("unknown screen %q", screen)
	}
	if !s.CellOnScreen(cell) {
		return grid.InvalidPoint, fmt.Errorf("cell %s is outside %s (max %d,%d)", cell, screen, s.MaxColumn(), s.MaxRow())
	}
	return s.ToGlobal(cell), nil
}

// Layout returns a snapshot of every screen and item.
func (d *Desktop) Layout() iconview.Layout {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view.Snapshot()
}

// Displays returns the last applied displays with the margins in effect.
func (d *Desktop) Displays() ([]platform.Display, []grid.Margins) {
	d.mu.Lock()
	defer d.mu.Unlock()
	displays := append([]platform.Display(nil), d.displays...)
	margins := make([]grid.Margins, len(displays))
	for i, disp := range displays {
		margins[i] = d.marginsLocked(disp)
	}
	return displays, margins
}

// Status summarises the desktop.
func (d *Desktop) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{
		Started:       d.started,
		Zoom:          d.view.ZoomProfile().Level,
		DesktopDir:    d.model.Dir(),
		PositionsFile: d.store.Path(),
		Items:         len(d.view.Items()),
		Floating:      len(d.view.FloatItems()),
	}
	for _, s := range d.view.Screens() {
		if s.IsValid() {
			st.Screens++
		}
	}
	if p := d.view.Primary(); p != nil {
		st.Primary = p.Name()
	}
	return st
}

// Updates returns how many layout changes the view has reported.
func (d *Desktop) Updates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updates
}

// Reload re-reads the configuration and applies zoom, margin and hidden-file
// changes. desktop_dir, positions_file and legacy_layout_quirks need a restart.
func (d *Desktop) Reload() error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.cfg
	if dir, err := cfg.ResolvedDesktopDir(); err == nil && dir != d.model.Dir() {
		d.logger.Warn("desktop_dir changed; restart the daemon to apply", "dir", dir)
	}
	if cfg.LegacyLayoutQuirks != prev.LegacyLayoutQuirks {
		d.logger.Warn("legacy_layout_quirks changed; restart the daemon to apply")
	}

	d.cfg = cfg
	d.setZoomLocked(cfg.Zoom())
	d.applyDisplaysLocked(d.displays)
	if cfg.ShowHidden != prev.ShowHidden {
		d.model.SetShowHidden(cfg.ShowHidden)
		if _, err := d.model.Rescan(d.view); err != nil {
			return err
		}
	}
	d.flushLocked()
	d.logger.Info("configuration reloaded")
	return nil
}

// Close commits the current layout and writes the positions file.
func (d *Desktop) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.SaveItemsPositions()
	return d.store.Flush()
}

func (d *Desktop) flushLocked() {
	if !d.store.Dirty() {
		return
	}
	if err := d.store.Flush(); err != nil {
		d.logger.Warn("failed to write positions", "file", d.store.Path(), "error", err)
	}
}
