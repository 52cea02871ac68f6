// Package capture produces per-packet frames for the feed server: MAC
// addresses plus the outer 802.1Q identifier, from a live interface or a
// synthetic generator.
package capture

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Device is one capturable interface. Its public id is the enumeration
// index, so ids stay stable only while the interface list does.
type Device struct {
	Index       int
	Name        string
	Description string
}

// ID returns the identifier clients use in /ws/{id}.
func (d Device) ID() string {
	return strconv.Itoa(d.Index)
}

// Frame is the wire form of one packet. VLAN 0 means untagged and is
// omitted from the JSON.
type Frame struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	VLAN uint16 `json:"vlan,omitempty"`
}

// Source enumerates devices and streams frames from one of them.
type Source interface {
	Devices() ([]Device, error)
	// Capture sends frames from the named device to out until ctx is done
	// or the device fails. It does not close out.
	Capture(ctx context.Context, name string, out chan<- Frame) error
}

// Lookup finds the device whose ID is id.
func Lookup(src Source, id string) (Device, bool, error) {
	devs, err := src.Devices()
	if err != nil {
		return Device{}, false, err
	}
	for _, d := range devs {
		if d.ID() == id {
			return d, true, nil
		}
	}
	return Device{}, false, nil
}

// FromPacket extracts a frame from a decoded packet. Only Ethernet packets
// yield a frame. The VLAN is the first (outer) 802.1Q tag, so stacked
// tags report the service VLAN.
func FromPacket(p gopacket.Packet) (Frame, bool) {
	ethLayer := p.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return Frame{}, false
	}
	eth := ethLayer.(*layers.Ethernet)
	f := Frame{
		Src: strings.ToUpper(eth.SrcMAC.String()),
		Dst: strings.ToUpper(eth.DstMAC.String()),
	}
	if tag := p.Layer(layers.LayerTypeDot1Q); tag != nil {
		f.VLAN = tag.(*layers.Dot1Q).VLANIdentifier
	}
	return f, true
}
