package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

const pollInterval = 2 * time.Second

// screenItem implements list.Item for the screen sidebar.
type screenItem struct {
	screen iconview.ScreenLayout
}

func (i screenItem) Title() string {
	if i.screen.Primary {
		return "* " + i.screen.Name
	}
	return "  " + i.screen.Name
}

func (i screenItem) Description() string {
	return fmt.Sprintf("  %d icons", len(i.screen.Items))
}

func (i screenItem) FilterValue() string { return i.screen.Name }

// layoutMsg carries a fresh snapshot from the daemon.
type layoutMsg struct {
	status *ipc.StatusData
	layout *ipc.LayoutData
	err    error
}

// actionMsg is sent after an IPC action completes.
type actionMsg struct {
	text string
	err  error
}

type tickMsg time.Time

// savedMsg is sent after the settings form was written.
type savedMsg struct {
	cfg *config.Config
	err error
}

// model is the root bubbletea model for the viewer.
type model struct {
	configPath string
	daemon     Daemon
	keys       keyMap
	help       help.Model
	screens    list.Model

	status    *ipc.StatusData
	layout    *ipc.LayoutData
	connected bool
	lastError string
	message   string

	cfg      *config.Config
	settings *settingsForm

	width  int
	height int
}

func newModel(configPath string, daemon Daemon) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Screens"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return model{
		configPath: configPath,
		daemon:     daemon,
		keys:       defaultKeyMap(),
		help:       help.New(),
		screens:    l,
	}
}

func fetchLayout(d Daemon) tea.Cmd {
	return func() tea.Msg {
		st, err := d.GetStatus()
		if err != nil {
			return layoutMsg{err: err}
		}
		l, err := d.GetLayout()
		return layoutMsg{status: st, layout: l, err: err}
	}
}

func runAction(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		return actionMsg{text: text, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(fetchLayout(m.daemon), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.settings != nil {
		return m.updateSettings(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screens.SetSize(m.sidebarWidth(), max(m.height-3, 1))
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchLayout(m.daemon), tick())

	case layoutMsg:
		m.applyLayout(msg)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = ""
			m.message = msg.text
		}
		return m, fetchLayout(m.daemon)

	case savedMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.cfg = msg.cfg
		return m, runAction(func() (string, error) {
			if err := m.daemon.Reload(); err != nil {
				return "", err
			}
			return "settings saved and reloaded", nil
		})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ZoomIn):
			return m, runAction(func() (string, error) {
				z, err := m.daemon.ZoomIn()
				return "zoom " + z, err
			})
		case key.Matches(msg, m.keys.ZoomOut):
			return m, runAction(func() (string, error) {
				z, err := m.daemon.ZoomOut()
				return "zoom " + z, err
			})
		case key.Matches(msg, m.keys.Refresh):
			return m, runAction(func() (string, error) {
				return "layout refreshed", m.daemon.Refresh()
			})
		case key.Matches(msg, m.keys.Rescan):
			return m, runAction(func() (string, error) {
				change, err := m.daemon.Rescan()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("rescan: -%d +%d", change.Removed, change.Inserted), nil
			})
		case key.Matches(msg, m.keys.Edit):
			if err := m.loadConfig(); err != nil {
				m.lastError = err.Error()
				return m, nil
			}
			m.settings = newSettingsForm(m.cfg, m.width)
			return m, m.settings.Init()
		}
	}

	var cmd tea.Cmd
	m.screens, cmd = m.screens.Update(msg)
	return m, cmd
}

func (m model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.settings = nil
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	done, cmd := m.settings.Update(msg)
	if !done {
		return m, cmd
	}
	form := m.settings
	m.settings = nil
	return m, m.saveSettings(form)
}

func (m model) saveSettings(form *settingsForm) tea.Cmd {
	cfg, path := m.cfg, m.configPath
	return func() tea.Msg {
		next, err := form.apply(cfg)
		if err != nil {
			return savedMsg{err: err}
		}
		if path == "" {
			err = next.Save()
		} else {
			err = next.SaveTo(path)
		}
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{cfg: next}
	}
}

func (m *model) loadConfig() error {
	var res *config.LoadResult
	var err error
	if m.configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(m.configPath)
	}
	if err != nil {
		return err
	}
	m.cfg = res.Config
	return nil
}

func (m *model) applyLayout(msg layoutMsg) {
	if msg.err != nil {
		m.connected = false
		m.lastError = msg.err.Error()
		return
	}
	if !m.connected {
		m.lastError = ""
	}
	m.connected = true
	m.status = msg.status
	m.layout = msg.layout

	items := make([]list.Item, 0, len(msg.layout.Screens))
	for _, s := range msg.layout.Screens {
		items = append(items, screenItem{screen: s})
	}
	m.screens.SetItems(items)
}

func (m model) selectedScreen() (iconview.ScreenLayout, bool) {
	item, ok := m.screens.SelectedItem().(screenItem)
	if !ok {
		return iconview.ScreenLayout{}, false
	}
	return item.screen, true
}

func (m model) sidebarWidth() int {
	return min(max(m.width/4, 16), 28)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.settings != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderStatusBar(),
			m.settings.View(),
		)
	}

	statusBar := m.renderStatusBar()
	helpBar := lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys))
	contentHeight := max(m.height-lipgloss.Height(statusBar)-lipgloss.Height(helpBar), 1)

	var content string
	if !m.connected {
		content = dimStyle.Padding(1, 2).Render("daemon not running; start it with: deskgrid daemon")
	} else {
		sidebar := lipgloss.NewStyle().Width(m.sidebarWidth()).Render(m.screens.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, m.renderScreen(m.width-m.sidebarWidth()-2, contentHeight))
	}
	content = lipgloss.NewStyle().Height(contentHeight).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, content, helpBar)
}

func (m model) renderScreen(width, height int) string {
	s, ok := m.selectedScreen()
	if !ok {
		return dimStyle.Render("no screens")
	}
	header := screenHeader(s)
	gridView := renderGrid(s, width, max(height-4, 1))
	itemsView := renderItems(s, max(height-lipgloss.Height(gridView)-4, 0))
	return lipgloss.NewStyle().PaddingLeft(2).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", gridView, "", itemsView),
	)
}

func (m model) renderStatusBar() string {
	var parts []string
	if m.connected && m.status != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts = append(parts,
			dot+" daemon connected",
			"zoom:"+m.status.Zoom,
			fmt.Sprintf("icons:%d", m.status.Items),
		)
		if m.status.Floating > 0 {
			parts = append(parts, fmt.Sprintf("floating:%d", m.status.Floating))
		}
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		parts = append(parts, dot+" daemon not running")
	}
	if m.lastError != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.lastError))
	} else if m.message != "" {
		parts = append(parts, m.message)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1).
		Render(strings.Join(parts, "  "))
}
