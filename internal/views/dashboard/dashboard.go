// Package dashboard renders the traffic summary row and the per-VLAN table
// with spring-animated bars.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/vlanwatch/vlanwatch/internal/aggregate"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

const (
	fps       = 30
	settleEps = 0.002
)

// FrameMsg advances the bar animation by one frame.
type FrameMsg struct{}

// Animate schedules the next animation frame.
func Animate() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// bar is the spring state of one row; pos and target are fractions of the
// widest row.
type bar struct {
	pos, vel, target float64
}

// Model holds the dashboard state.
type Model struct {
	Width     int
	rows      []aggregate.Entry
	total     uint64
	malformed uint64
	bars      map[string]*bar
	spring    harmonica.Spring
	animating bool
}

// New creates a dashboard model.
func New() Model {
	return Model{
		bars:   make(map[string]*bar),
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.9),
	}
}

// SetSnapshot replaces the rows and retargets every bar. It returns an
// animation command when bars start moving from rest.
func (m *Model) SetSnapshot(rows []aggregate.Entry, total, malformed uint64) tea.Cmd {
	m.rows = rows
	m.total = total
	m.malformed = malformed

	var peak uint64
	for _, r := range rows {
		peak = max(peak, r.Count)
	}

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.Label] = true
		b, ok := m.bars[r.Label]
		if !ok {
			b = &bar{}
			m.bars[r.Label] = b
		}
		b.target = 0
		if peak > 0 {
			b.target = float64(r.Count) / float64(peak)
		}
	}
	for label := range m.bars {
		if !seen[label] {
			delete(m.bars, label)
		}
	}

	if m.animating || m.settled() {
		return nil
	}
	m.animating = true
	return Animate()
}

// Update steps the springs on FrameMsg and keeps ticking until every bar
// has settled.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(FrameMsg); !ok {
		return nil
	}
	for _, b := range m.bars {
		b.pos, b.vel = m.spring.Update(b.pos, b.vel, b.target)
	}
	if m.settled() {
		for _, b := range m.bars {
			b.pos, b.vel = b.target, 0
		}
		m.animating = false
		return nil
	}
	return Animate()
}

func (m *Model) settled() bool {
	for _, b := range m.bars {
		if abs(b.pos-b.target) > settleEps || abs(b.vel) > settleEps {
			return false
		}
	}
	return true
}

// View renders the stats row and the VLAN table.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsRow(width),
		m.renderTable(width),
	)
}

func (m Model) renderStatsRow(width int) string {
	tagged := uint64(0)
	vlans := 0
	for _, r := range m.rows {
		if r.VLAN != 0 {
			tagged += r.Count
			vlans++
		}
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render("Packets: " + humanize.Comma(int64(m.total))),
		statStyle.Foreground(theme.ColorHealthy).Render("Tagged: " + humanize.Comma(int64(tagged))),
		statStyle.Foreground(theme.ColorUntagged).Render(fmt.Sprintf("VLANs: %d", vlans)),
	}
	if m.malformed > 0 {
		stats = append(stats, statStyle.Foreground(theme.ColorWarning).Render(
			"Malformed: "+humanize.Comma(int64(m.malformed))))
	}

	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderTable(width int) string {
	colLabel := 12
	colCount := 12
	colShare := 7
	barWidth := max(10, width-colLabel-colCount-colShare-8)

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	header := fmt.Sprintf("  %-*s %-*s %*s %*s", colLabel, "VLAN", barWidth, "", colCount, "Packets", colShare, "Share")
	lines := []string{
		theme.StyleHeader.Render("  Traffic by VLAN"),
		dimStyle.Render(header),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colLabel+barWidth+colCount+colShare+3))),
	}

	for _, r := range m.rows {
		frac := 0.0
		if b, ok := m.bars[r.Label]; ok {
			frac = b.pos
		}
		share := 0.0
		if m.total > 0 {
			share = float64(r.Count) / float64(m.total) * 100
		}

		color := theme.VLANColor(r.VLAN)
		label := lipgloss.NewStyle().Foreground(color).Width(colLabel).Render(r.Label)
		count := lipgloss.NewStyle().Foreground(theme.ColorBright).Bold(true).
			Width(colCount).Align(lipgloss.Right).Render(humanize.Comma(int64(r.Count)))
		pct := dimStyle.Width(colShare).Align(lipgloss.Right).Render(fmt.Sprintf("%.1f%%", share))

		lines = append(lines, fmt.Sprintf("  %s %s %s %s", label, renderBar(frac, barWidth, color), count, pct))
	}

	if m.total == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  Waiting for packets..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderBar(frac float64, width int, color lipgloss.Color) string {
	filled := max(0, min(int(frac*float64(width)+0.5), width))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	return bar + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", width-filled))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
