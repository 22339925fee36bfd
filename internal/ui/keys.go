package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding the App reacts to.
type keyMap struct {
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Open       key.Binding
	Close      key.Binding
	Search     key.Binding
	SwitchView key.Binding
	Sort       key.Binding
	Language   key.Binding
	Bookmark   key.Binding
	DetailMark key.Binding
	SaveNote   key.Binding
	Debug      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		SwitchView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "view")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Language:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
		Bookmark:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark")),
		DetailMark: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "bookmark")),
		SaveNote:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save note")),
		Debug:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "debug")),
	}
}
