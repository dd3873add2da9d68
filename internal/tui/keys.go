package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Next   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	More   key.Binding
	Retry  key.Binding
	Search key.Binding
}

var keys = keyMap{
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back/quit")),
	Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	More:   key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "more")),
	Retry:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Next, k.Select, k.More, k.Retry, k.Back}
}
