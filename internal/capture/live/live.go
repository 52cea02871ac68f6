// Package live captures frames from real interfaces through libpcap.
package live

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/vlanwatch/vlanwatch/internal/capture"
)

// readTimeout bounds each pcap read so cancellation is noticed promptly.
const readTimeout = 500 * time.Millisecond

// Source captures with libpcap. Devices are listed in pcap enumeration
// order.
type Source struct {
	Snaplen     int32
	Promiscuous bool
}

// New creates a live source.
func New(snaplen int, promiscuous bool) *Source {
	return &Source{Snaplen: int32(snaplen), Promiscuous: promiscuous}
}

// Devices lists the interfaces libpcap can open.
func (s *Source) Devices() ([]capture.Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	devs := make([]capture.Device, len(ifs))
	for i, d := range ifs {
		devs[i] = capture.Device{Index: i, Name: d.Name, Description: d.Description}
	}
	return devs, nil
}

// Capture opens name and forwards every Ethernet frame until ctx is done.
func (s *Source) Capture(ctx context.Context, name string, out chan<- capture.Frame) error {
	handle, err := pcap.OpenLive(name, s.Snaplen, s.Promiscuous, readTimeout)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer handle.Close()

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetSource.NoCopy = true
	in := packetSource.Packets()

	for {
		select {
		case <-ctx.Done():
			return nil
		case packet, ok := <-in:
			if !ok {
				return fmt.Errorf("capture on %s ended", name)
			}
			f, ok := capture.FromPacket(packet)
			if !ok {
				continue
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
