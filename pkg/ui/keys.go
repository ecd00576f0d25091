package ui

import "github.com/charmbracelet/bubbles/key"

type treeKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Activate  key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	ToggleAll key.Binding
	Clear     key.Binding
	Reveal    key.Binding
	Copy      key.Binding
	Menu      key.Binding
	Close     key.Binding
}

var treeKeys = treeKeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Activate:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "open folder / select")),
	Expand:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand or enter")),
	Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse or parent")),
	ToggleAll: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand/collapse all")),
	Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear selection")),
	Reveal:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "reveal selection")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
	Menu:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "folder menu")),
	Close:     key.NewBinding(key.WithKeys("esc", "m"), key.WithHelp("esc", "close menu")),
}

type comboKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Close  key.Binding
	Open   key.Binding
}

var comboKeys = comboKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
	Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close list")),
	Open:   key.NewBinding(key.WithKeys("ctrl+@", "down"), key.WithHelp("↓", "open list")),
}

type accountKeyMap struct {
	List          key.Binding
	Up            key.Binding
	Down          key.Binding
	Load          key.Binding
	Remove        key.Binding
	Back          key.Binding
	RemoveEditing key.Binding
}

var accountKeys = accountKeyMap{
	List:          key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "account list")),
	Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Load:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit / add new")),
	Remove:        key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
	Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to form")),
	RemoveEditing: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove edited account")),
}

type appKeyMap struct {
	Transaction  key.Binding
	Account      key.Binding
	Categories   key.Binding
	Help         key.Binding
	HelpAnywhere key.Binding
	Quit         key.Binding
	Submit       key.Binding
	Next         key.Binding
	Prev         key.Binding
	FocusPanel   key.Binding
}

var appKeys = appKeyMap{
	Transaction:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "new transaction")),
	Account:      key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "new account")),
	Categories:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "categories")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	HelpAnywhere: key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
	Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Submit:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "review / submit")),
	Next:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev:         key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	FocusPanel:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tree")),
}
