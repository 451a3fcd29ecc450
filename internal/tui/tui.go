package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/deskgrid/internal/ipc"
)

// Daemon is the subset of the IPC client the viewer drives.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetLayout() (*ipc.LayoutData, error)
	ZoomIn() (string, error)
	ZoomOut() (string, error)
	Refresh() error
	Rescan() (*ipc.RescanData, error)
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// TUI is the interactive layout viewer.
type TUI struct {
	configPath string
	daemon     Daemon
}

// New creates a viewer talking to daemon. configPath selects the file the
// settings form edits; empty means the default location.
func New(configPath string, daemon Daemon) *TUI {
	return &TUI{configPath: configPath, daemon: daemon}
}

// Run starts the viewer and blocks until the user quits.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(t.configPath, t.daemon), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
