package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keyboard bindings. Picker navigation lives in
// the devices view.
type KeyMap struct {
	Deselect key.Binding
	Detail   key.Binding
	Debug    key.Binding
	Help     key.Binding
	Escape   key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Focus    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Deselect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop watching"),
		),
		Detail: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "session detail"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("j", "down"),
		),
		Focus: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "log: current generation only"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
