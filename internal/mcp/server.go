package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskgrid/internal/ipc"
)

const (
	ServerName    = "deskgrid"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools need.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	GetLayout() (*ipc.LayoutData, error)
	SetZoom(level string) (string, error)
	ZoomIn() (string, error)
	ZoomOut() (string, error)
	Refresh() error
	Rescan() (*ipc.RescanData, error)
	MoveItem(req ipc.MoveItemPayload) (*ipc.MoveItemData, error)
	MoveItems(req ipc.MoveItemsPayload) (*ipc.MoveItemsData, error)
	PlaceItem(item string) (*ipc.PlacementData, error)
	ItemAt(req ipc.ItemAtPayload) (string, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server exposes the running desktop layout daemon as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the desktop layout daemon status: zoom level, desktop directory, positions file, screen count and the number of placed and floating icons.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_screens",
		Description: "List the screens the desktop spans with their usable geometry, margins and grid capacity (max_column, max_row are the last valid cell indices).",
	}, s.handleListScreens)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_icons",
		Description: "List every desktop icon with its screen, grid cell and absolute position. Optionally restrict to one screen.",
	}, s.handleListIcons)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_icon_position",
		Description: "Look up the screen, grid cell, absolute position and drawn rectangle of one desktop icon by file name, path or file:// URI. A floating icon is placed first.",
	}, s.handleGetIconPosition)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_zoom",
		Description: "Change the icon zoom level (small, normal, large, huge) or step it with in/out. Icons keep their order and are re-laid out on the new grid.",
	}, s.handleSetZoom)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_icon",
		Description: "Move a desktop icon to a free grid cell on a screen. Fails when the cell is outside the screen's grid or held by another icon. The new position is remembered.",
	}, s.handleMoveIcon)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_icons",
		Description: "Move several desktop icons together, shifting each by the offset from one grid cell to another (the cells may be on different screens). Icons that do not fit at their destination are laid out again.",
	}, s.handleMoveIcons)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "icon_at",
		Description: "Report which desktop icon, if any, is drawn over a grid cell of a screen.",
	}, s.handleIconAt)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_layout",
		Description: "Repair overlapping or off-screen icons and commit every position. With rescan set the desktop directory is re-read first.",
	}, s.handleRefreshLayout)
}
