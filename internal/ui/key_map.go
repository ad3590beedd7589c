package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	reserve    key.Binding
	unreserve  key.Binding
	contribute key.Binding
	refresh    key.Binding
	submit     key.Binding
	back       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		reserve:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reserve")),
		unreserve:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unreserve")),
		contribute: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "contribute")),
		refresh:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.reserve, k.unreserve, k.contribute, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.refresh},
		{k.reserve, k.unreserve, k.contribute},
		{k.submit, k.back, k.quit},
	}
}
