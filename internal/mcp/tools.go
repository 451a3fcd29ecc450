package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/iconview"
	"github.com/1broseidon/deskgrid/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, daemonError(err)
	}
	return nil, StatusOutput{
		Zoom:          st.Zoom,
		DesktopDir:    st.DesktopDir,
		PositionsFile: st.PositionsFile,
		Screens:       st.Screens,
		Primary:       st.Primary,
		Items:         st.Items,
		Floating:      st.Floating,
		UptimeSeconds: st.UptimeSeconds,
	}, nil
}

func (s *Server) handleListScreens(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListScreensOutput, error) {
	layout, err := s.daemon.GetLayout()
	if err != nil {
		return nil, ListScreensOutput{}, daemonError(err)
	}

	out := ListScreensOutput{
		Zoom:     layout.Zoom,
		CellSize: layout.CellSize,
		Screens:  make([]ScreenInfo, 0, len(layout.Screens)),
	}
	for _, sc := range layout.Screens {
		out.Screens = append(out.Screens, ScreenInfo{
			Name:      sc.Name,
			Primary:   sc.Primary,
			Valid:     sc.Valid,
			Geometry:  sc.Geometry,
			Margins:   sc.Margins,
			MaxColumn: sc.MaxColumn,
			MaxRow:    sc.MaxRow,
			Items:     len(sc.Items),
		})
	}
	return nil, out, nil
}

func (s *Server) handleListIcons(_ context.Context, _ *mcpsdk.CallToolRequest, args ListIconsInput) (*mcpsdk.CallToolResult, ListIconsOutput, error) {
	layout, err := s.daemon.GetLayout()
	if err != nil {
		return nil, ListIconsOutput{}, daemonError(err)
	}

	out := ListIconsOutput{Icons: []IconInfo{}}
	found := args.Screen == ""
	for _, icon := range iconsOf(layout) {
		if args.Screen != "" && icon.Screen != args.Screen {
			continue
		}
		out.Icons = append(out.Icons, icon)
	}
	for _, sc := range layout.Screens {
		if sc.Name == args.Screen {
			found = true
		}
	}
	if !found {
		return nil, ListIconsOutput{}, fmt.Errorf("unknown screen %q", args.Screen)
	}
	if args.Screen == "" {
		for _, uri := range layout.Floating {
			out.Floating = append(out.Floating, desktopdir.DisplayName(uri))
		}
	}
	s.logger.Debug("list_icons", "screen", args.Screen, "icons", len(out.Icons))
	return nil, out, nil
}

func (s *Server) handleGetIconPosition(_ context.Context, _ *mcpsdk.CallToolRequest, args GetIconPositionInput) (*mcpsdk.CallToolResult, IconInfo, error) {
	if strings.TrimSpace(args.Item) == "" {
		return nil, IconInfo{}, fmt.Errorf("item is required")
	}
	pl, err := s.daemon.PlaceItem(args.Item)
	if err != nil {
		return nil, IconInfo{}, daemonError(err)
	}
	return nil, iconFromPlacement(*pl), nil
}

func (s *Server) handleSetZoom(_ context.Context, _ *mcpsdk.CallToolRequest, args SetZoomInput) (*mcpsdk.CallToolResult, SetZoomOutput, error) {
	var (
		zoom string
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(args.Level)) {
	case "in", "+":
		zoom, err = s.daemon.ZoomIn()
	case "out", "-":
		zoom, err = s.daemon.ZoomOut()
	case "":
		return nil, SetZoomOutput{}, fmt.Errorf("level is required")
	default:
		zoom, err = s.daemon.SetZoom(args.Level)
	}
	if err != nil {
		return nil, SetZoomOutput{}, daemonError(err)
	}
	s.logger.Info("zoom changed via mcp", "zoom", zoom)
	return nil, SetZoomOutput{Zoom: zoom}, nil
}

func (s *Server) handleMoveIcon(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveIconInput) (*mcpsdk.CallToolResult, IconInfo, error) {
	if strings.TrimSpace(args.Item) == "" {
		return nil, IconInfo{}, fmt.Errorf("item is required")
	}
	if strings.TrimSpace(args.Screen) == "" {
		return nil, IconInfo{}, fmt.Errorf("screen is required")
	}
	if args.Column < 0 || args.Row < 0 {
		return nil, IconInfo{}, fmt.Errorf("column and row must be non-negative")
	}

	moved, err := s.daemon.MoveItem(ipc.MoveItemPayload{
		Item:   args.Item,
		Screen: args.Screen,
		Column: args.Column,
		Row:    args.Row,
	})
	if err != nil {
		return nil, IconInfo{}, daemonError(err)
	}
	s.logger.Info("icon moved via mcp", "item", moved.URI, "screen", args.Screen, "cell", moved.Cell.String())
	return nil, iconFromLayout(args.Screen, *moved), nil
}

func (s *Server) handleMoveIcons(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveIconsInput) (*mcpsdk.CallToolResult, MoveIconsOutput, error) {
	if len(args.Items) == 0 {
		return nil, MoveIconsOutput{}, fmt.Errorf("items are required")
	}
	if strings.TrimSpace(args.FromScreen) == "" || strings.TrimSpace(args.ToScreen) == "" {
		return nil, MoveIconsOutput{}, fmt.Errorf("from_screen and to_screen are required")
	}
	if args.FromColumn < 0 || args.FromRow < 0 || args.ToColumn < 0 || args.ToRow < 0 {
		return nil, MoveIconsOutput{}, fmt.Errorf("columns and rows must be non-negative")
	}

	moved, err := s.daemon.MoveItems(ipc.MoveItemsPayload{
		Items:      args.Items,
		FromScreen: args.FromScreen,
		FromColumn: args.FromColumn,
		FromRow:    args.FromRow,
		ToScreen:   args.ToScreen,
		ToColumn:   args.ToColumn,
		ToRow:      args.ToRow,
	})
	if err != nil {
		return nil, MoveIconsOutput{}, daemonError(err)
	}
	out := MoveIconsOutput{Icons: make([]IconInfo, 0, len(moved.Items))}
	for _, pl := range moved.Items {
		out.Icons = append(out.Icons, iconFromPlacement(pl))
	}
	s.logger.Info("icons moved via mcp", "items", len(out.Icons), "to", args.ToScreen)
	return nil, out, nil
}

func (s *Server) handleIconAt(_ context.Context, _ *mcpsdk.CallToolRequest, args IconAtInput) (*mcpsdk.CallToolResult, IconAtOutput, error) {
	if strings.TrimSpace(args.Screen) == "" {
		return nil, IconAtOutput{}, fmt.Errorf("screen is required")
	}
	if args.Column < 0 || args.Row < 0 {
		return nil, IconAtOutput{}, fmt.Errorf("column and row must be non-negative")
	}
	uri, err := s.daemon.ItemAt(ipc.ItemAtPayload{Screen: args.Screen, Column: args.Column, Row: args.Row})
	if err != nil {
		return nil, IconAtOutput{}, daemonError(err)
	}
	if uri == "" {
		return nil, IconAtOutput{}, nil
	}
	return nil, IconAtOutput{Occupied: true, Name: desktopdir.DisplayName(uri), URI: uri}, nil
}

func (s *Server) handleRefreshLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args RefreshLayoutInput) (*mcpsdk.CallToolResult, RefreshLayoutOutput, error) {
	var out RefreshLayoutOutput
	if args.Rescan {
		change, err := s.daemon.Rescan()
		if err != nil {
			return nil, RefreshLayoutOutput{}, daemonError(err)
		}
		out.Removed, out.Inserted = change.Removed, change.Inserted
	}
	if err := s.daemon.Refresh(); err != nil {
		return nil, RefreshLayoutOutput{}, daemonError(err)
	}
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, RefreshLayoutOutput{}, daemonError(err)
	}
	out.Items = st.Items
	return nil, out, nil
}

func iconsOf(layout *ipc.LayoutData) []IconInfo {
	var icons []IconInfo
	for _, sc := range layout.Screens {
		for _, it := range sc.Items {
			icons = append(icons, iconFromLayout(sc.Name, it))
		}
	}
	return icons
}

func iconFromPlacement(pl iconview.Placement) IconInfo {
	return iconFromLayout(pl.Screen, pl.ItemLayout)
}

func iconFromLayout(screen string, it iconview.ItemLayout) IconInfo {
	return IconInfo{
		Name:       desktopdir.DisplayName(it.URI),
		URI:        it.URI,
		Screen:     screen,
		Column:     it.Cell.Column,
		Row:        it.Cell.Row,
		X:          it.Position.X,
		Y:          it.Position.Y,
		Rect:       it.Rect,
		Overlapped: it.Overlapped,
	}
}

func daemonError(err error) error {
	return fmt.Errorf("deskgrid daemon: %w", err)
}
