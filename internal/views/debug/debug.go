// Package debug renders the session log overlay. Controller transitions are
// kept with their generation so the log reads as one block per stream, and
// the view can narrow to a single generation.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vlanwatch/vlanwatch/internal/session"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

// DefaultCapacity bounds the log when New is given no capacity.
const DefaultCapacity = 256

// Kind classifies a log entry.
type Kind int

const (
	KindTransition Kind = iota // session state change
	KindRetry                  // reconnect scheduled, state unchanged
	KindCatalog                // device list fetched
	KindError                  // failed transition or catalog problem
)

func (k Kind) String() string {
	switch k {
	case KindTransition:
		return "sess"
	case KindRetry:
		return "retry"
	case KindCatalog:
		return "cat"
	case KindError:
		return "err"
	}
	return "?"
}

// Entry is one log line. Generation is zero for entries outside any stream.
type Entry struct {
	At         time.Time
	Kind       Kind
	DeviceID   string
	Generation uint64
	To         session.State
	Text       string
}

// Model is a fixed-capacity ring of entries plus the overlay's view state.
type Model struct {
	ring    []Entry
	head    int
	size    int
	evicted uint64

	focus  uint64 // show only this generation when non-zero
	offset int    // rows scrolled up from the bottom

	now func() time.Time
}

// New creates an empty log holding at most capacity entries.
func New(capacity int) *Model {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Model{ring: make([]Entry, capacity), now: time.Now}
}

// Record appends a controller transition.
func (m *Model) Record(t session.Transition) {
	e := Entry{DeviceID: t.DeviceID, Generation: t.Generation, To: t.To}
	switch {
	case t.From == t.To:
		e.Kind = KindRetry
		e.Text = fmt.Sprintf("attempt %d", t.Attempt)
	case t.Err != nil:
		e.Kind = KindError
		e.Text = fmt.Sprintf("%s → %s", t.From, t.To)
	default:
		e.Kind = KindTransition
		e.Text = fmt.Sprintf("%s → %s", t.From, t.To)
	}
	if t.Notice != "" {
		e.Text += " (" + t.Notice + ")"
	}
	if t.Err != nil {
		e.Text += ": " + t.Err.Error()
	}
	m.push(e)
}

// Note appends an entry that belongs to no stream.
func (m *Model) Note(kind Kind, text string) {
	m.push(Entry{Kind: kind, Text: text})
}

func (m *Model) push(e Entry) {
	e.At = m.now()
	if m.size < len(m.ring) {
		m.ring[(m.head+m.size)%len(m.ring)] = e
		m.size++
	} else {
		m.ring[m.head] = e
		m.head = (m.head + 1) % len(m.ring)
		m.evicted++
	}
	m.offset = 0
}

// Entries returns the retained entries that pass the focus filter, oldest
// first. Unscoped entries are always shown.
func (m *Model) Entries() []Entry {
	out := make([]Entry, 0, m.size)
	for i := 0; i < m.size; i++ {
		e := m.ring[(m.head+i)%len(m.ring)]
		if m.focus != 0 && e.Generation != 0 && e.Generation != m.focus {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Evicted returns how many entries the ring has pushed out.
func (m *Model) Evicted() uint64 { return m.evicted }

// Focus narrows the view to gen; zero shows every generation.
func (m *Model) Focus(gen uint64) {
	m.focus = gen
	m.offset = 0
}

// Focused returns the generation the view is narrowed to, or zero.
func (m *Model) Focused() uint64 { return m.focus }

// ScrollUp moves the viewport towards older rows.
func (m *Model) ScrollUp(n int) {
	m.offset = min(m.offset+n, max(len(m.rows())-1, 0))
}

// ScrollDown moves the viewport towards the newest row.
func (m *Model) ScrollDown(n int) {
	m.offset = max(m.offset-n, 0)
}

// row is either a generation header or an entry.
type row struct {
	header bool
	entry  Entry
}

// rows lays the filtered entries out with a header wherever the stream
// changes.
func (m *Model) rows() []row {
	var out []row
	var gen uint64
	for _, e := range m.Entries() {
		if e.Generation != 0 && e.Generation != gen {
			out = append(out, row{header: true, entry: e})
			gen = e.Generation
		}
		out = append(out, row{entry: e})
	}
	return out
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the log as an overlay panel.
func (m *Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visible := max(height-6, 3)

	title := theme.StyleHeader.Render(" SESSION LOG ")
	scope := "all generations"
	if m.focus != 0 {
		scope = fmt.Sprintf("gen %d only", m.focus)
	}
	footer := fmt.Sprintf("j/k:scroll  g:focus  esc:close  %s", scope)
	if m.evicted > 0 {
		footer += fmt.Sprintf("  %d evicted", m.evicted)
	}
	help := theme.StyleDimmed.Render(footer)

	rows := m.rows()
	if len(rows) == 0 {
		body := theme.StyleDimmed.Render("  Nothing logged yet.")
		return panelStyle(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
	}

	end := max(len(rows)-m.offset, 0)
	start := max(end-visible, 0)

	lines := make([]string, 0, end-start)
	for _, r := range rows[start:end] {
		if r.header {
			lines = append(lines, theme.StyleHeader.Render(
				fmt.Sprintf("gen %d · device %s", r.entry.Generation, r.entry.DeviceID)))
			continue
		}
		lines = append(lines, m.renderEntry(r.entry, innerW))
	}

	more := ""
	if m.offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.offset))
	}
	return panelStyle(innerW).Render(lipgloss.JoinVertical(lipgloss.Left,
		title, strings.Join(lines, "\n"), more, help))
}

func (m *Model) renderEntry(e Entry, width int) string {
	ts := theme.StyleDimmed.Render(e.At.Format("15:04:05.000"))
	kind := lipgloss.NewStyle().Foreground(entryColor(e)).Width(5).Render(e.Kind.String())
	indent := ""
	if e.Generation != 0 {
		indent = "  "
	}
	text := e.Text
	if room := width - 22; room > 3 && len([]rune(text)) > room {
		text = string([]rune(text)[:room-1]) + "…"
	}
	return fmt.Sprintf("%s%s %s %s", indent, ts, kind, text)
}

// entryColor colors transitions by the state they entered.
func entryColor(e Entry) lipgloss.Color {
	switch e.Kind {
	case KindTransition:
		return theme.StateColor(e.To.String())
	case KindRetry:
		return theme.ColorWarning
	case KindCatalog:
		return theme.ColorUntagged
	case KindError:
		return theme.ColorErrored
	}
	return theme.ColorDimmed
}
