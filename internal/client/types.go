// Package client talks to the feed backend: the device inventory over HTTP
// and per-device packet feeds over WebSocket. Types mirror the backend wire
// protocol without importing backend packages.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Device is a selectable capture source.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts the id as a JSON string or a JSON integer; older
// backends enumerate devices by index.
func (d *Device) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name *string         `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		return fmt.Errorf("device without id")
	case id[0] == '"':
		if err := json.Unmarshal(id, &d.ID); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("device id %s: %w", id, err)
		}
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("device id %s is not an integer", id)
		}
		d.ID = n.String()
	}
	if d.ID == "" {
		return fmt.Errorf("device with empty id")
	}
	if raw.Name == nil {
		return fmt.Errorf("device %s without name", d.ID)
	}
	d.Name = *raw.Name
	return nil
}

// --- Bubble Tea messages ---

// DevicesMsg delivers the outcome of one catalog fetch. Devices is empty
// whenever Err is set.
type DevicesMsg struct {
	Devices []Device
	Err     error
}

// FeedOpenedMsg is sent when a feed connection is established.
type FeedOpenedMsg struct{ Generation uint64 }

// FeedFrameMsg carries one raw inbound frame.
type FeedFrameMsg struct {
	Generation uint64
	Data       []byte
}

// FeedErrorMsg reports a failed dial or an unexpected disconnect.
type FeedErrorMsg struct {
	Generation uint64
	Err        error
}

// FeedClosedMsg confirms an operator-initiated close has finished.
type FeedClosedMsg struct{ Generation uint64 }
