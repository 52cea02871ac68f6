// Package help renders the key reference overlay from Markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/vlanwatch/vlanwatch/internal/theme"
)

// Model holds the help overlay state. Rendered output is cached per width.
type Model struct {
	markdown string
	width    int
	rendered string
}

// New builds the help text for the given bindings.
func New(bindings ...key.Binding) Model {
	return Model{markdown: Markdown(bindings...)}
}

// Markdown returns the key reference as a Markdown document.
func Markdown(bindings ...key.Binding) string {
	var b strings.Builder
	b.WriteString("# vlanwatch\n\n")
	b.WriteString("Live packet counts per VLAN for one capture device at a time.\n\n")
	b.WriteString("| Key | Action |\n|-----|--------|\n")
	for _, kb := range bindings {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\nSwitching devices closes the current feed before the next one opens. ")
	b.WriteString("A dropped feed is retried with backoff before the device is marked unreachable.\n")
	return b.String()
}

// View renders the overlay at the given width, falling back to the raw
// Markdown when the renderer fails.
func (m *Model) View(width int) string {
	if width < 40 {
		width = 40
	}
	if m.rendered == "" || m.width != width {
		m.width = width
		m.rendered = render(m.markdown, width-4)
	}
	return theme.StyleBorder.Padding(0, 1).Render(m.rendered)
}

func render(md string, wrap int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
