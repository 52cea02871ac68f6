package status

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/vlanwatch/vlanwatch/internal/session"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Status     session.Status
	DeviceName string
	Width      int
	spinner    spinner.Model
}

// New creates a status bar model.
func New() Model {
	return Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorConnecting)),
		),
	}
}

// Tick starts the connecting spinner.
func (m Model) Tick() tea.Msg {
	return m.spinner.Tick()
}

// Update advances the spinner.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	st := m.Status

	var stateStr string
	color := theme.StateColor(st.State.String())
	switch {
	case st.Unreachable:
		stateStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("✕ unreachable")
	case st.State == session.Connecting:
		stateStr = m.spinner.View() + lipgloss.NewStyle().Foreground(color).Render(" connecting")
	case st.State == session.Open:
		stateStr = lipgloss.NewStyle().Foreground(color).Render("● open")
	default:
		stateStr = lipgloss.NewStyle().Foreground(color).Render("○ " + st.State.String())
	}

	device := "no device"
	if st.DeviceID != "" {
		device = st.DeviceID
		if m.DeviceName != "" {
			device = fmt.Sprintf("%s (%s)", m.DeviceName, st.DeviceID)
		}
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := lipgloss.NewStyle().Foreground(theme.ColorBright).Render(device) + sep + stateStr
	if st.Generation > 0 {
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("gen %d", st.Generation))
	}
	content += sep + humanize.Comma(int64(st.Totals.Total)) + " packets"
	if st.Evicted > 0 {
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("log %d/%s dropped", st.Logged, humanize.Comma(int64(st.Evicted))))
	}
	if st.Notice != "" {
		content += sep + theme.StyleWarning.Render(st.Notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
