// Package ingest decodes raw feed frames into typed packet events.
package ingest

import (
	"bytes"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// VLAN ids outside this range are rejected.
const (
	MinVLAN = 1
	MaxVLAN = 4094
)

// PacketEvent is one observed packet. VLAN is zero for untagged traffic.
type PacketEvent struct {
	Src  string
	Dst  string
	VLAN uint16
}

// Tagged reports whether the packet carried an 802.1Q id.
func (e PacketEvent) Tagged() bool {
	return e.VLAN != 0
}

// ParseError describes a frame that does not match the feed schema.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Err)
	}
	return "malformed frame: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type wireFrame struct {
	Src  *string             `json:"src"`
	Dst  *string             `json:"dst"`
	VLAN jsoniter.RawMessage `json:"vlan"`
}

// Decode validates one frame of the form {"src":..,"dst":..,"vlan"?:..}.
// Every failure is returned as a *ParseError; Decode never panics on input.
func Decode(raw []byte) (PacketEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return PacketEvent{}, &ParseError{Reason: "frame is not a JSON object"}
	}

	var w wireFrame
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return PacketEvent{}, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if w.Src == nil {
		return PacketEvent{}, &ParseError{Reason: "missing src"}
	}
	if w.Dst == nil {
		return PacketEvent{}, &ParseError{Reason: "missing dst"}
	}

	ev := PacketEvent{Src: *w.Src, Dst: *w.Dst}
	vlan, err := parseVLAN(w.VLAN)
	if err != nil {
		return PacketEvent{}, err
	}
	ev.VLAN = vlan
	return ev, nil
}

// parseVLAN accepts an absent or null field as untagged, otherwise a bare
// integer in [MinVLAN, MaxVLAN].
func parseVLAN(raw jsoniter.RawMessage) (uint16, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(v), 10, 16)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("vlan %s is not an integer id", v), Err: err}
	}
	if n < MinVLAN || n > MaxVLAN {
		return 0, &ParseError{Reason: fmt.Sprintf("vlan %d out of range [%d, %d]", n, MinVLAN, MaxVLAN)}
	}
	return uint16(n), nil
}
