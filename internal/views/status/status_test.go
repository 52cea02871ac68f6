package status

import (
	"strings"
	"testing"

	"github.com/vlanwatch/vlanwatch/internal/aggregate"
	"github.com/vlanwatch/vlanwatch/internal/session"
)

func TestViewNoDevice(t *testing.T) {
	m := New()
	v := m.View()
	if !strings.Contains(v, "no device") {
		t.Error("idle status should say no device is selected")
	}
	if strings.Contains(v, "gen ") {
		t.Error("generation should be hidden before any session")
	}
}

func TestViewOpen(t *testing.T) {
	m := New()
	m.Width = 120
	m.DeviceName = "eth0"
	m.Status = session.Status{
		DeviceID:   "1",
		Generation: 3,
		State:      session.Open,
		Totals:     aggregate.Totals{Total: 12345},
	}
	v := m.View()
	for _, want := range []string{"eth0 (1)", "open", "gen 3", "12,345 packets"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestViewUnreachable(t *testing.T) {
	m := New()
	m.Width = 120
	m.Status = session.Status{
		DeviceID:    "2",
		State:       session.Closed,
		Unreachable: true,
		Notice:      "device 2 unreachable after 3 attempts",
	}
	v := m.View()
	if !strings.Contains(v, "unreachable after 3 attempts") {
		t.Error("view should show the give-up notice")
	}
}
