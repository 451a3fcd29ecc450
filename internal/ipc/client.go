package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/deskgrid/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(command CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(command CommandType, payload interface{}, out interface{}) error {
	resp, err := c.sendRequest(command, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	var monitors MonitorsData
	if err := c.call(CommandGetMonitors, nil, &monitors); err != nil {
		return nil, err
	}
	return &monitors, nil
}

// GetLayout retrieves the full icon layout.
func (c *Client) GetLayout() (*LayoutData, error) {
	var layout LayoutData
	if err := c.call(CommandGetLayout, nil, &layout); err != nil {
		return nil, err
	}
	return &layout, nil
}

// SetZoom switches the zoom level and returns the level now active.
func (c *Client) SetZoom(level string) (string, error) {
	var data ZoomData
	if err := c.call(CommandSetZoom, SetZoomPayload{Level: level}, &data); err != nil {
		return "", err
	}
	return data.Zoom, nil
}

func (c *Client) ZoomIn() (string, error) {
	var data ZoomData
	if err := c.call(CommandZoomIn, nil, &data); err != nil {
		return "", err
	}
	return data.Zoom, nil
}

func (c *Client) ZoomOut() (string, error) {
	var data ZoomData
	if err := c.call(CommandZoomOut, nil, &data); err != nil {
		return "", err
	}
	return data.Zoom, nil
}

// Refresh repairs and commits the layout.
func (c *Client) Refresh() error {
	return c.call(CommandRefresh, nil, nil)
}

// Rescan re-reads the desktop directory.
func (c *Client) Rescan() (*RescanData, error) {
	var data RescanData
	if err := c.call(CommandRescan, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MoveItem moves an item to a screen cell.
func (c *Client) MoveItem(req MoveItemPayload) (*MoveItemData, error) {
	var data MoveItemData
	if err := c.call(CommandMoveItem, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MoveItems shifts several items by the same cell offset.
func (c *Client) MoveItems(req MoveItemsPayload) (*MoveItemsData, error) {
	var data MoveItemsData
	if err := c.call(CommandMoveItems, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// PlaceItem returns where an item lives, placing it if it is floating.
func (c *Client) PlaceItem(item string) (*PlacementData, error) {
	var data PlacementData
	if err := c.call(CommandPlaceItem, PlaceItemPayload{Item: item}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ItemAt returns the URI of the item on a screen cell, or "".
func (c *Client) ItemAt(req ItemAtPayload) (string, error) {
	var data ItemAtData
	if err := c.call(CommandItemAt, req, &data); err != nil {
		return "", err
	}
	return data.URI, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
