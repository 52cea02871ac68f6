package client

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"
)

// ListDevices fetches /devices once and returns the inventory in server
// order. Any failure is a *TransportError.
func (c *HTTPClient) ListDevices(ctx context.Context) ([]Device, error) {
	var out []Device
	if err := c.get(ctx, "/devices", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Device{}
	}
	return out, nil
}

// FetchDevices returns a Bubble Tea command that lists devices. A failed
// fetch yields an empty catalog alongside the error.
func FetchDevices(ctx context.Context, c *HTTPClient) tea.Cmd {
	return func() tea.Msg {
		devices, err := c.ListDevices(ctx)
		if err != nil {
			log.Printf("catalog: %v", err)
			return DevicesMsg{Devices: []Device{}, Err: err}
		}
		return DevicesMsg{Devices: devices}
	}
}
