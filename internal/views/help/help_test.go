package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func TestMarkdownListsBindings(t *testing.T) {
	md := Markdown(
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		key.NewBinding(key.WithKeys("x")),
	)
	if !strings.Contains(md, "| `q` | quit |") {
		t.Errorf("markdown missing quit row:\n%s", md)
	}
	if strings.Count(md, "| `") != 1 {
		t.Error("bindings without help should be skipped")
	}
}

func TestViewCachesPerWidth(t *testing.T) {
	m := New(key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "debug log")))
	first := m.View(80)
	if !strings.Contains(first, "debug") {
		t.Error("rendered help should mention the binding")
	}
	if m.width != 80 {
		t.Errorf("cached width = %d, want 80", m.width)
	}
	m.View(100)
	if m.width != 100 {
		t.Errorf("cached width = %d, want 100 after resize", m.width)
	}
}
