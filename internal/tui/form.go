package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/grid"
)

// settingsForm edits the layout settings of a config. Values are bound as
// strings for huh and converted on submit.
type settingsForm struct {
	form *huh.Form

	fZoomLevel     string
	fShowHidden    bool
	fUseDockStruts bool
	fRescan        string
	fMarginTop     string
	fMarginBottom  string
	fMarginLeft    string
	fMarginRight   string
}

func newSettingsForm(cfg *config.Config, width int) *settingsForm {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	f := &settingsForm{
		fZoomLevel:     cfg.Zoom().String(),
		fShowHidden:    cfg.ShowHidden,
		fUseDockStruts: cfg.UseDockStruts,
		fRescan:        strconv.Itoa(cfg.RescanIntervalSeconds),
		fMarginTop:     strconv.Itoa(cfg.PanelMargins.Top),
		fMarginBottom:  strconv.Itoa(cfg.PanelMargins.Bottom),
		fMarginLeft:    strconv.Itoa(cfg.PanelMargins.Left),
		fMarginRight:   strconv.Itoa(cfg.PanelMargins.Right),
	}

	w := max(width-4, 40)

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("zoom_level").
				Title("Zoom Level").
				Description("Icon size and grid spacing").
				Options(huh.NewOptions(grid.ZoomLevelNames()...)...).
				Value(&f.fZoomLevel),

			huh.NewConfirm().
				Key("show_hidden").
				Title("Show Hidden Files").
				Value(&f.fShowHidden),

			huh.NewConfirm().
				Key("use_dock_struts").
				Title("Avoid Panels").
				Description("Keep icons clear of docks and panels").
				Value(&f.fUseDockStruts),

			huh.NewInput().
				Key("rescan_interval_seconds").
				Title("Rescan Interval").
				Description("Seconds between safety rescans, 0 disables").
				Validate(validateNonNegative).
				Value(&f.fRescan),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("margin_top").
				Title("Panel Margin: Top").
				Validate(validateNonNegative).
				Value(&f.fMarginTop),
			huh.NewInput().
				Key("margin_bottom").
				Title("Panel Margin: Bottom").
				Validate(validateNonNegative).
				Value(&f.fMarginBottom),
			huh.NewInput().
				Key("margin_left").
				Title("Panel Margin: Left").
				Validate(validateNonNegative).
				Value(&f.fMarginLeft),
			huh.NewInput().
				Key("margin_right").
				Title("Panel Margin: Right").
				Validate(validateNonNegative).
				Value(&f.fMarginRight),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	return f
}

func (f *settingsForm) Init() tea.Cmd {
	return f.form.Init()
}

// Update forwards msg to the form. It reports whether the form was submitted.
func (f *settingsForm) Update(msg tea.Msg) (bool, tea.Cmd) {
	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	return f.form.State == huh.StateCompleted, cmd
}

func (f *settingsForm) View() string {
	return f.form.View()
}

// apply writes the form values into a copy of cfg.
func (f *settingsForm) apply(cfg *config.Config) (*config.Config, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	out := *cfg

	level, err := grid.ParseZoomLevel(f.fZoomLevel)
	if err != nil {
		return nil, err
	}
	out.ZoomLevel = level.String()
	out.ShowHidden = f.fShowHidden
	out.UseDockStruts = f.fUseDockStruts

	fields := []struct {
		name  string
		value string
		dst   *int
	}{
		{"rescan interval", f.fRescan, &out.RescanIntervalSeconds},
		{"top margin", f.fMarginTop, &out.PanelMargins.Top},
		{"bottom margin", f.fMarginBottom, &out.PanelMargins.Bottom},
		{"left margin", f.fMarginLeft, &out.PanelMargins.Left},
		{"right margin", f.fMarginRight, &out.PanelMargins.Right},
	}
	for _, field := range fields {
		n, err := parseNonNegative(field.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = n
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func validateNonNegative(s string) error {
	_, err := parseNonNegative(s)
	return err
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("must be a whole number")
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}
