package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/deskgrid/internal/runtimepath"
)

// Controller is the daemon side of the protocol. Implementations serialise
// access to the layout themselves.
type Controller interface {
	Status() StatusData
	Monitors() ([]MonitorInfo, error)
	Layout() LayoutData
	SetZoom(level string) (string, error)
	ZoomIn() string
	ZoomOut() string
	Refresh()
	Rescan() (RescanData, error)
	MoveItem(req MoveItemPayload) (MoveItemData, error)
	MoveItems(req MoveItemsPayload) (MoveItemsData, error)
	PlaceItem(item string) (PlacementData, error)
	ItemAt(req ItemAtPayload) (ItemAtData, error)
	Reload() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	ctrl       Controller
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closing  bool
	conns    sync.WaitGroup
}

// NewServer creates a server on the default runtime socket.
func NewServer(ctrl Controller, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, ctrl, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
	}
}

// SocketPath returns the unix socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.closing = false
	s.mu.Unlock()

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop(listener)
	return nil
}

// Serve starts the server and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		if err := s.ctrl.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		return okResponse(nil)
	case CommandGetStatus:
		return okResponse(s.ctrl.Status())
	case CommandGetMonitors:
		monitors, err := s.ctrl.Monitors()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
		}
		return okResponse(MonitorsData{Monitors: monitors})
	case CommandGetLayout:
		return okResponse(s.ctrl.Layout())
	case CommandSetZoom:
		var payload SetZoomPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid zoom payload: %v", err))
		}
		zoom, err := s.ctrl.SetZoom(payload.Level)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okResponse(ZoomData{Zoom: zoom})
	case CommandZoomIn:
		return okResponse(ZoomData{Zoom: s.ctrl.ZoomIn()})
	case CommandZoomOut:
		return okResponse(ZoomData{Zoom: s.ctrl.ZoomOut()})
	case CommandRefresh:
		s.ctrl.Refresh()
		return okResponse(nil)
	case CommandRescan:
		change, err := s.ctrl.Rescan()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to rescan: %v", err))
		}
		return okResponse(change)
	case CommandMoveItem:
		var payload MoveItemPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
		}
		if payload.Item == "" {
			return NewErrorResponse("item is required")
		}
		item, err := s.ctrl.MoveItem(payload)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okResponse(item)
	case CommandMoveItems:
		var payload MoveItemsPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
		}
		if len(payload.Items) == 0 {
			return NewErrorResponse("items are required")
		}
		moved, err := s.ctrl.MoveItems(payload)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okResponse(moved)
	case CommandPlaceItem:
		var payload PlaceItemPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid place payload: %v", err))
		}
		if payload.Item == "" {
			return NewErrorResponse("item is required")
		}
		placement, err := s.ctrl.PlaceItem(payload.Item)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okResponse(placement)
	case CommandItemAt:
		var payload ItemAtPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid item_at payload: %v", err))
		}
		found, err := s.ctrl.ItemAt(payload)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return okResponse(found)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.mu.Lock()
	s.closing = true
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
		os.Remove(s.socketPath)
	}
	s.conns.Wait()
}
