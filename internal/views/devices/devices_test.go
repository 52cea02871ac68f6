package devices

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vlanwatch/vlanwatch/internal/client"
)

func loaded(devs ...client.Device) Model {
	m := New(context.Background(), nil)
	m, _ = m.Update(client.DevicesMsg{Devices: devs})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestLoadingState(t *testing.T) {
	m := New(context.Background(), nil)
	if !strings.Contains(m.View(), "Loading devices") {
		t.Error("picker should start in the loading state")
	}
}

func TestEmptyAndErrorStates(t *testing.T) {
	m := loaded()
	if !strings.Contains(m.View(), "No capture devices") {
		t.Error("empty catalog should say so")
	}

	m, _ = m.Update(client.DevicesMsg{Devices: []client.Device{}, Err: errors.New("refused")})
	if !strings.Contains(m.View(), "unavailable") {
		t.Error("failed fetch should show an error")
	}
}

func TestCursorWraps(t *testing.T) {
	m := loaded(client.Device{ID: "0", Name: "eth0"}, client.Device{ID: "1", Name: "eth1"})

	m, _ = m.Update(keyMsg("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 after wrapping up", m.cursor)
	}
	m, _ = m.Update(keyMsg("j"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after wrapping down", m.cursor)
	}
}

func TestSelectEmitsDevice(t *testing.T) {
	m := loaded(client.Device{ID: "0", Name: "eth0"}, client.Device{ID: "1", Name: "eth1"})
	m, _ = m.Update(keyMsg("j"))

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter should emit a selection")
	}
	sel, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("got %T, want SelectedMsg", cmd())
	}
	if sel.Device.ID != "1" {
		t.Errorf("selected %q, want 1", sel.Device.ID)
	}
}

func TestSelectWithoutDevices(t *testing.T) {
	m := loaded()
	if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
}

func TestCursorClampedOnReload(t *testing.T) {
	m := loaded(client.Device{ID: "0"}, client.Device{ID: "1"}, client.Device{ID: "2"})
	m.cursor = 2
	m, _ = m.Update(client.DevicesMsg{Devices: []client.Device{{ID: "0"}}})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after shrinking list", m.cursor)
	}
}

func TestLookupAndActive(t *testing.T) {
	m := loaded(client.Device{ID: "7", Name: "wlan0"})
	m.SetActive("7")
	if d, ok := m.Lookup("7"); !ok || d.Name != "wlan0" {
		t.Errorf("Lookup(7) = %+v, %v", d, ok)
	}
	if _, ok := m.Lookup("8"); ok {
		t.Error("Lookup of unknown id should fail")
	}
	if !strings.Contains(m.View(), "▶ wlan0") {
		t.Error("active device should be marked")
	}
}
