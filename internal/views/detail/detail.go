// Package detail renders the session flyout: stream identity, counters, and
// the tail of the raw packet log.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/vlanwatch/vlanwatch/internal/aggregate"
	"github.com/vlanwatch/vlanwatch/internal/session"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

const (
	panelWidth = 64
	labelWidth = 14
	// TailLines is how many logged packets the flyout shows.
	TailLines = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)

	styleError = lipgloss.NewStyle().
			Foreground(theme.ColorDanger)
)

// Model holds the state for the detail overlay.
type Model struct {
	Status     session.Status
	DeviceName string
	Recent     []aggregate.LoggedEvent
	// Now is used for relative timestamps; zero means time.Now.
	Now time.Time
}

// View renders the detail panel. Returns an empty string when no device is
// selected.
func (m Model) View() string {
	if m.Status.DeviceID == "" {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner())
}

func (m Model) renderInner() string {
	var b strings.Builder
	st := m.Status

	name := st.DeviceID
	if m.DeviceName != "" {
		name = m.DeviceName
	}
	b.WriteString(styleTitle.Render("Device: "+name) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "ID", st.DeviceID)
	writeRow(&b, "State", lipgloss.NewStyle().Foreground(theme.StateColor(st.State.String())).Render(st.State.String()))
	writeRow(&b, "Generation", fmt.Sprintf("%d", st.Generation))
	if st.Attempt > 0 {
		writeRow(&b, "Retry", fmt.Sprintf("attempt %d", st.Attempt))
	}

	b.WriteString("\n")

	t := st.Totals
	writeRow(&b, "Packets", humanize.Comma(int64(t.Total)))
	writeRow(&b, "Untagged", humanize.Comma(int64(t.Untagged)))
	writeRow(&b, "VLANs seen", fmt.Sprintf("%d", len(t.ByVLAN)))
	if st.Malformed > 0 {
		writeRow(&b, "Malformed", humanize.Comma(int64(st.Malformed)))
	}
	logged := fmt.Sprintf("%d kept", st.Logged)
	if st.Evicted > 0 {
		logged += fmt.Sprintf(", %s evicted", humanize.Comma(int64(st.Evicted)))
	}
	writeRow(&b, "Packet log", logged)

	if len(m.Recent) > 0 {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Recent packets (%d)", len(m.Recent))) + "\n")
		for _, e := range m.Recent {
			b.WriteString(m.renderEvent(e) + "\n")
		}
	}

	if st.Unreachable || st.State == session.Error {
		b.WriteString("\n")
		b.WriteString(styleError.Render(st.Notice) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

func (m Model) renderEvent(e aggregate.LoggedEvent) string {
	now := m.Now
	if now.IsZero() {
		now = time.Now()
	}
	vlan := aggregate.UntaggedLabel
	if e.Event.Tagged() {
		vlan = aggregate.VLANLabel(e.Event.VLAN)
	}
	return fmt.Sprintf("  %-10s %s → %s  %s",
		lipgloss.NewStyle().Foreground(theme.VLANColor(e.Event.VLAN)).Render(vlan),
		truncate(e.Event.Src, 17),
		truncate(e.Event.Dst, 17),
		theme.StyleDimmed.Render(humanize.RelTime(e.At, now, "ago", "from now")),
	)
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
