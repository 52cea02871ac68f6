package capture

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Mock VLAN mix: weight per id, 0 is untagged.
var mockVLANs = []struct {
	id     uint16
	weight int
}{
	{0, 40},
	{10, 25},
	{20, 15},
	{30, 10},
	{100, 6},
	{4094, 4},
}

// MockSource generates synthetic traffic for hosts without capture
// privileges. Devices mirror the host's interface names.
type MockSource struct {
	rate  int
	hosts []net.HardwareAddr
	// interfaces lists host interfaces; replaceable in tests.
	interfaces func() (psnet.InterfaceStatList, error)
}

// NewMockSource creates a generator emitting rate frames per second per
// capture.
func NewMockSource(rate int) *MockSource {
	if rate <= 0 {
		rate = 1
	}
	hosts := make([]net.HardwareAddr, 8)
	for i := range hosts {
		hosts[i] = net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, byte(i >> 8), byte(i)}
	}
	return &MockSource{
		rate:       rate,
		hosts:      hosts,
		interfaces: psnet.Interfaces,
	}
}

// Devices returns the host's interface names, or a single mock0 when they
// cannot be listed.
func (m *MockSource) Devices() ([]Device, error) {
	ifaces, err := m.interfaces()
	if err != nil {
		log.Printf("mock: listing interfaces: %v", err)
	}
	if len(ifaces) == 0 {
		return []Device{{Index: 0, Name: "mock0", Description: "synthetic"}}, nil
	}
	devs := make([]Device, len(ifaces))
	for i, iface := range ifaces {
		devs[i] = Device{Index: i, Name: iface.Name, Description: "synthetic"}
	}
	return devs, nil
}

// Capture emits synthetic frames until ctx is done. Each frame is
// serialized and decoded again so it takes the same extraction path as a
// live packet.
func (m *MockSource) Capture(ctx context.Context, name string, out chan<- Frame) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Second / time.Duration(m.rate))
	defer ticker.Stop()

	buf := gopacket.NewSerializeBuffer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		src := m.hosts[rng.Intn(len(m.hosts))]
		dst := m.hosts[rng.Intn(len(m.hosts))]
		data, err := BuildFrame(buf, src, dst, pickVLAN(rng))
		if err != nil {
			return fmt.Errorf("mock %s: %w", name, err)
		}
		f, ok := FromPacket(gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default))
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

func pickVLAN(rng *rand.Rand) uint16 {
	total := 0
	for _, v := range mockVLANs {
		total += v.weight
	}
	n := rng.Intn(total)
	for _, v := range mockVLANs {
		if n < v.weight {
			return v.id
		}
		n -= v.weight
	}
	return 0
}

// BuildFrame serializes an Ethernet frame with an optional 802.1Q tag and a
// small payload into buf and returns its bytes.
func BuildFrame(buf gopacket.SerializeBuffer, src, dst net.HardwareAddr, vlan uint16, extraTags ...uint16) ([]byte, error) {
	payload := gopacket.Payload([]byte("vlanwatch"))
	eth := &layers.Ethernet{SrcMAC: src, DstMAC: dst, EthernetType: layers.EthernetTypeIPv4}

	tags := vlan != 0 || len(extraTags) > 0
	if !tags {
		if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, eth, payload); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	ids := append([]uint16{vlan}, extraTags...)
	ls := []gopacket.SerializableLayer{eth}
	eth.EthernetType = layers.EthernetTypeDot1Q
	for i, id := range ids {
		next := layers.EthernetTypeDot1Q
		if i == len(ids)-1 {
			next = layers.EthernetTypeIPv4
		}
		ls = append(ls, &layers.Dot1Q{VLANIdentifier: id, Type: next})
	}
	ls = append(ls, payload)
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, ls...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
