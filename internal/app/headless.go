package app

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vlanwatch/vlanwatch/internal/session"
)

type stopMsg struct{}

// Headless drives one device's feed without rendering. It quits when the
// duration elapses or the device is given up on.
type Headless struct {
	ctrl     *session.Controller
	deviceID string
	duration time.Duration
	final    *session.Status
}

// NewHeadless creates a headless runner for deviceID. A zero duration runs
// until interrupted.
func NewHeadless(ctrl *session.Controller, deviceID string, duration time.Duration) Headless {
	return Headless{ctrl: ctrl, deviceID: deviceID, duration: duration, final: &session.Status{}}
}

// Init selects the device and arms the stop timer.
func (h Headless) Init() tea.Cmd {
	cmds := []tea.Cmd{h.ctrl.Select(h.deviceID)}
	if h.duration > 0 {
		cmds = append(cmds, tea.Tick(h.duration, func(time.Time) tea.Msg { return stopMsg{} }))
	}
	return tea.Batch(cmds...)
}

// Update forwards feed messages to the controller.
func (h Headless) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		return h, h.stop()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return h, h.stop()
		}
		return h, nil
	}

	cmd := h.ctrl.Handle(msg)
	if st := h.ctrl.Status(); st.Unreachable {
		log.Printf("headless: giving up on %s", st.DeviceID)
		return h, tea.Quit
	}
	return h, cmd
}

// stop records the final counts, then closes the feed and quits.
func (h Headless) stop() tea.Cmd {
	*h.final = h.ctrl.Status()
	return tea.Sequence(h.ctrl.Shutdown(), tea.Quit)
}

// Final returns the counts as they stood when the run ended.
func (h Headless) Final() session.Status {
	if h.final.Generation == 0 {
		return h.ctrl.Status()
	}
	return *h.final
}

// View renders nothing.
func (h Headless) View() string { return "" }
