// Package devices provides the device picker: the capture inventory with a
// cursor, plus its loading, empty, and error states.
package devices

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vlanwatch/vlanwatch/internal/client"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

// SelectedMsg is emitted when the operator picks a device.
type SelectedMsg struct {
	Device client.Device
}

// KeyMap holds the picker key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default picker key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev device"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next device"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "watch device"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload devices"),
		),
	}
}

// Model is the device picker.
type Model struct {
	ctx  context.Context
	http *client.HTTPClient
	keys KeyMap

	devices []client.Device
	cursor  int

	// active is the device id whose feed is currently selected.
	active string

	// loading is true while a catalog fetch is in flight.
	loading bool
	err     error

	width int
}

// New creates a picker. It begins in the loading state.
func New(ctx context.Context, http *client.HTTPClient) Model {
	return Model{
		ctx:     ctx,
		http:    http,
		keys:    DefaultKeyMap(),
		loading: true,
	}
}

// Init fires the first catalog fetch.
func (m Model) Init() tea.Cmd {
	return client.FetchDevices(m.ctx, m.http)
}

// SetActive marks deviceID as the watched device.
func (m *Model) SetActive(deviceID string) {
	m.active = deviceID
}

// SetWidth updates the available rendering width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Devices returns the last fetched inventory.
func (m Model) Devices() []client.Device {
	return m.devices
}

// Lookup returns the device with the given id.
func (m Model) Lookup(id string) (client.Device, bool) {
	for _, d := range m.devices {
		if d.ID == id {
			return d, true
		}
	}
	return client.Device{}, false
}

// Update handles catalog results and picker keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case client.DevicesMsg:
		m.loading = false
		m.err = msg.Err
		m.devices = msg.Devices
		if m.cursor >= len(m.devices) {
			m.cursor = max(0, len(m.devices)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if len(m.devices) > 0 {
			m.cursor = (m.cursor - 1 + len(m.devices)) % len(m.devices)
		}

	case key.Matches(msg, m.keys.Down):
		if len(m.devices) > 0 {
			m.cursor = (m.cursor + 1) % len(m.devices)
		}

	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.devices) {
			break
		}
		d := m.devices[m.cursor]
		return m, func() tea.Msg { return SelectedMsg{Device: d} }

	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			break
		}
		m.loading = true
		return m, client.FetchDevices(m.ctx, m.http)
	}
	return m, nil
}

// View renders the picker panel.
func (m Model) View() string {
	title := theme.StyleHeader.Render("Devices")

	var body string
	switch {
	case m.loading:
		body = theme.StyleDimmed.Render("Loading devices...")
	case m.err != nil:
		body = lipgloss.JoinVertical(lipgloss.Left,
			theme.StyleDanger.Render("Device list unavailable"),
			theme.StyleDimmed.Render("r: retry"),
		)
	case len(m.devices) == 0:
		body = theme.StyleDimmed.Render("No capture devices")
	default:
		rows := make([]string, len(m.devices))
		for i, d := range m.devices {
			rows[i] = m.renderRow(d, i == m.cursor, d.ID == m.active)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	width := 28
	if m.width > 0 {
		width = m.width
	}
	return theme.StyleBorder.
		Width(width).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func (m Model) renderRow(d client.Device, isCursor, isActive bool) string {
	var prefix string
	switch {
	case isActive:
		prefix = "▶ "
	case isCursor:
		prefix = "> "
	default:
		prefix = "  "
	}

	label := fmt.Sprintf("%s%s", prefix, d.Name)
	if d.Name == "" {
		label = prefix + d.ID
	}

	switch {
	case isCursor:
		return theme.StyleSelected.Render(label)
	case isActive:
		return lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(label)
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorBright).Render(label)
	}
}
