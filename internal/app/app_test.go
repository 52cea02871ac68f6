package app

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vlanwatch/vlanwatch/internal/client"
	"github.com/vlanwatch/vlanwatch/internal/session"
	"github.com/vlanwatch/vlanwatch/internal/views/debug"
)

type stubFeed struct {
	gen uint64
}

func (f stubFeed) Connect() tea.Cmd {
	return func() tea.Msg { return client.FeedOpenedMsg{Generation: f.gen} }
}

func (f stubFeed) Read() tea.Cmd { return nil }

func (f stubFeed) Close() tea.Cmd {
	return func() tea.Msg { return client.FeedClosedMsg{Generation: f.gen} }
}

func newTestModel(autoSelect string) Model {
	ctrl := session.NewController(func(id string, gen uint64) session.Feed {
		return stubFeed{gen: gen}
	}, session.Options{MaxAttempts: 3, LogCapacity: 16})
	return New(nil, ctrl, autoSelect)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var catalog = client.DevicesMsg{Devices: []client.Device{
	{ID: "0", Name: "eth0"},
	{ID: "1", Name: "eth1"},
}}

func TestViewInitializing(t *testing.T) {
	m := newTestModel("")
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() before sizing = %q", v)
	}
}

func TestAutoSelectAfterCatalog(t *testing.T) {
	m := newTestModel("1")
	m, _ = update(t, m, catalog)

	st := m.ctrl.Status()
	if st.DeviceID != "1" || st.State != session.Connecting {
		t.Fatalf("status = %s/%s, want 1/connecting", st.DeviceID, st.State)
	}
	if m.autoSelect != "" {
		t.Error("auto-select should only fire once")
	}
	if m.statusBar.DeviceName != "eth1" {
		t.Errorf("status bar device = %q, want eth1", m.statusBar.DeviceName)
	}
}

func TestAutoSelectUnknownDevice(t *testing.T) {
	m := newTestModel("9")
	m, _ = update(t, m, catalog)
	if st := m.ctrl.Status(); st.State != session.Idle {
		t.Errorf("state = %s, want idle for an unknown device", st.State)
	}
	found := false
	for _, e := range m.log.Entries() {
		if e.Kind == debug.KindError && strings.Contains(e.Text, "not in catalog") {
			found = true
		}
	}
	if !found {
		t.Error("unknown auto-select device should be logged")
	}
}

func TestFramesReachDashboard(t *testing.T) {
	m := newTestModel("")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, catalog)
	m, _ = update(t, m, runeKey("j"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should emit a selection")
	}
	m, _ = update(t, m, cmd())

	if st := m.ctrl.Status(); st.DeviceID != "1" {
		t.Fatalf("selected %q, want 1", st.DeviceID)
	}
	m, _ = update(t, m, client.FeedOpenedMsg{Generation: 1})
	m, _ = update(t, m, client.FeedFrameMsg{Generation: 1, Data: []byte(`{"src":"a","dst":"b","vlan":10}`)})
	m, _ = update(t, m, client.FeedFrameMsg{Generation: 1, Data: []byte(`{"src":"a","dst":"b"}`)})

	st := m.ctrl.Status()
	if st.State != session.Open || st.Totals.Total != 2 {
		t.Fatalf("status = %s with %d packets, want open with 2", st.State, st.Totals.Total)
	}
	v := m.View()
	for _, want := range []string{"Vlan 10", "Untagged", "eth1"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestDeselectKey(t *testing.T) {
	m := newTestModel("0")
	m, _ = update(t, m, catalog)
	m, _ = update(t, m, client.FeedOpenedMsg{Generation: 1})

	m, cmd := update(t, m, runeKey("x"))
	if cmd == nil {
		t.Fatal("deselect should close the open feed")
	}
	if st := m.ctrl.Status(); st.State != session.Closing {
		t.Errorf("state = %s, want closing", st.State)
	}
}

func TestTransitionsAreLogged(t *testing.T) {
	m := newTestModel("0")
	m, _ = update(t, m, catalog)
	m, _ = update(t, m, client.FeedOpenedMsg{Generation: 1})

	var sess int
	for _, e := range m.log.Entries() {
		if e.Kind == debug.KindTransition && e.Generation == 1 {
			sess++
		}
	}
	if sess != 2 {
		t.Errorf("logged %d session transitions, want 2", sess)
	}
}

func TestOverlays(t *testing.T) {
	m := newTestModel("")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(t, m, runeKey("d"))
	if m.overlay != OverlayDebug {
		t.Fatalf("overlay = %d, want debug", m.overlay)
	}
	if !strings.Contains(m.View(), "SESSION LOG") {
		t.Error("debug overlay should render")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.overlay != OverlayNone {
		t.Error("esc should close the overlay")
	}

	m, _ = update(t, m, runeKey("i"))
	if !strings.Contains(m.View(), "No device selected") {
		t.Error("detail overlay without a device should say so")
	}
}

func TestQuitCancelsContext(t *testing.T) {
	m := newTestModel("")
	m, cmd := update(t, m, runeKey("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel the model context")
	}
}

func TestDebugFocusFollowsCurrentGeneration(t *testing.T) {
	m := newTestModel("0")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, catalog)
	m, _ = update(t, m, runeKey("d"))

	m, _ = update(t, m, runeKey("g"))
	if got := m.log.Focused(); got != 1 {
		t.Fatalf("focused generation = %d, want 1", got)
	}
	m, _ = update(t, m, runeKey("g"))
	if got := m.log.Focused(); got != 0 {
		t.Errorf("second g should clear the focus, got %d", got)
	}
}
