package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vlanwatch/vlanwatch/internal/client"
	"github.com/vlanwatch/vlanwatch/internal/session"
	"github.com/vlanwatch/vlanwatch/internal/theme"
	"github.com/vlanwatch/vlanwatch/internal/views/dashboard"
	"github.com/vlanwatch/vlanwatch/internal/views/debug"
	"github.com/vlanwatch/vlanwatch/internal/views/detail"
	"github.com/vlanwatch/vlanwatch/internal/views/devices"
	"github.com/vlanwatch/vlanwatch/internal/views/help"
	"github.com/vlanwatch/vlanwatch/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayDebug
	OverlayHelp
)

const pickerWidth = 28

// Model is the root Bubble Tea model.
type Model struct {
	http   *client.HTTPClient
	ctrl   *session.Controller
	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	// autoSelect is a device id to watch once the catalog has loaded.
	autoSelect string

	// Sub-views. log and help are pointers so the controller subscription
	// and the render cache survive Model copies.
	picker    devices.Model
	statusBar status.Model
	dashboard dashboard.Model
	log       *debug.Model
	help      *help.Model
}

// New creates the root model and subscribes its debug log to session
// transitions.
func New(http *client.HTTPClient, ctrl *session.Controller, autoSelect string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	pk := devices.DefaultKeyMap()
	hm := help.New(pk.Up, pk.Down, pk.Select, pk.Refresh,
		keys.Deselect, keys.Detail, keys.Debug, keys.Focus, keys.Help, keys.Escape, keys.Quit)

	m := Model{
		http:       http,
		ctrl:       ctrl,
		ctx:        ctx,
		cancel:     cancel,
		keys:       keys,
		autoSelect: autoSelect,
		picker:     devices.New(ctx, http),
		statusBar:  status.New(),
		dashboard:  dashboard.New(),
		log:        debug.New(0),
		help:       &hm,
	}
	ctrl.Subscribe(m.log.Record)
	m.refresh()
	return m
}

// Init loads the device catalog and starts the status spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.picker.Init(), m.statusBar.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = max(40, msg.Width-pickerWidth-4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.DevicesMsg:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if msg.Err != nil {
			m.log.Note(debug.KindError, fmt.Sprintf("device list: %v", msg.Err))
		} else {
			m.log.Note(debug.KindCatalog, fmt.Sprintf("%d devices", len(msg.Devices)))
		}
		if id := m.autoSelect; id != "" {
			m.autoSelect = ""
			if _, ok := m.picker.Lookup(id); ok {
				sel := m.selectDevice(id)
				return m, tea.Batch(cmd, sel)
			}
			m.log.Note(debug.KindError, fmt.Sprintf("device %s not in catalog", id))
		}
		return m, cmd

	case devices.SelectedMsg:
		cmd := m.selectDevice(msg.Device.ID)
		return m, cmd

	case dashboard.FrameMsg:
		cmd := m.dashboard.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		cmd := m.statusBar.Update(msg)
		return m, cmd
	}

	// Feed and reconnect messages belong to the controller.
	cmd := m.ctrl.Handle(msg)
	anim := m.refresh()
	return m, tea.Batch(cmd, anim)
}

func (m *Model) selectDevice(id string) tea.Cmd {
	m.picker.SetActive(id)
	cmd := m.ctrl.Select(id)
	return tea.Batch(cmd, m.refresh())
}

// refresh copies controller state into the views.
func (m *Model) refresh() tea.Cmd {
	st := m.ctrl.Status()
	m.statusBar.Status = st
	m.statusBar.DeviceName = ""
	if d, ok := m.picker.Lookup(st.DeviceID); ok {
		m.statusBar.DeviceName = d.Name
	}
	return m.dashboard.SetSnapshot(st.Snapshot, st.Totals.Total, st.Malformed)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Sequence(m.ctrl.Shutdown(), tea.Quit)
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.ScrollUp):
			m.log.ScrollUp(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.ScrollDn):
			m.log.ScrollDown(1)
		case m.overlay == OverlayDebug && key.Matches(msg, m.keys.Focus):
			if m.log.Focused() != 0 {
				m.log.Focus(0)
			} else {
				m.log.Focus(m.ctrl.Status().Generation)
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Deselect):
		m.picker.SetActive("")
		cmd := m.ctrl.Deselect()
		anim := m.refresh()
		return m, tea.Batch(cmd, anim)

	case key.Matches(msg, m.keys.Detail):
		m.overlay = OverlayDetail
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayDetail:
		st := m.ctrl.Status()
		d, _ := m.picker.Lookup(st.DeviceID)
		body = detail.Model{
			Status:     st,
			DeviceName: d.Name,
			Recent:     m.ctrl.RecentEvents(detail.TailLines),
		}.View()
		if body == "" {
			body = theme.StyleDimmed.Render("  No device selected.")
		}
	case OverlayDebug:
		body = m.log.View(m.width, m.height-4)
	case OverlayHelp:
		body = m.help.View(m.width)
	default:
		m.picker.SetWidth(pickerWidth)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.picker.View(),
			"  ",
			m.dashboard.View(),
		)
	}

	sections := []string{
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  j/k:device  enter:watch  x:stop  r:reload  i:detail  d:debug  ?:help  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
