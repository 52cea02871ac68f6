package detail

import (
	"strings"
	"testing"
	"time"

	"github.com/vlanwatch/vlanwatch/internal/aggregate"
	"github.com/vlanwatch/vlanwatch/internal/ingest"
	"github.com/vlanwatch/vlanwatch/internal/session"
)

func TestViewWithoutDevice(t *testing.T) {
	if v := (Model{}).View(); v != "" {
		t.Errorf("expected empty view, got %q", v)
	}
}

func TestViewShowsCountersAndTail(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := Model{
		Status: session.Status{
			DeviceID:   "0",
			Generation: 2,
			State:      session.Open,
			Malformed:  4,
			Totals: aggregate.Totals{
				Total:    1500,
				Untagged: 500,
				ByVLAN:   map[uint16]uint64{10: 1000},
			},
			Logged: 2,
		},
		DeviceName: "eth0",
		Now:        now,
		Recent: []aggregate.LoggedEvent{
			{At: now.Add(-3 * time.Second), Event: ingest.PacketEvent{Src: "AA", Dst: "BB", VLAN: 10}},
			{At: now.Add(-time.Second), Event: ingest.PacketEvent{Src: "CC", Dst: "DD"}},
		},
	}

	v := m.View()
	for _, want := range []string{"Device: eth0", "1,500", "Malformed", "Vlan 10", "AA → BB", "Untagged", "CC → DD", "3 seconds ago"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestViewShowsNoticeWhenUnreachable(t *testing.T) {
	m := Model{Status: session.Status{
		DeviceID:    "3",
		State:       session.Closed,
		Unreachable: true,
		Notice:      "device 3 unreachable after 3 attempts",
	}}
	if !strings.Contains(m.View(), "unreachable after 3 attempts") {
		t.Error("unreachable sessions should show the notice")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
