package tui

import "github.com/charmbracelet/bubbles/key"

type listKeys struct {
	Toggle, Add, Rename, Delete, Open, Filter, Reload, Quit key.Binding
}

func newListKeys() listKeys {
	return listKeys{
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Rename: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Filter: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k listKeys) extra() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Rename, k.Delete, k.Open, k.Filter, k.Reload}
}

// detailKeys satisfies help.KeyMap.
type detailKeys struct {
	Complete, Rename, Memo, Image, Delete, Retry, Back, Quit key.Binding
}

func newDetailKeys() detailKeys {
	return detailKeys{
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Rename:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Memo:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "memo")),
		Image:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "image")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k detailKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Rename, k.Memo, k.Image, k.Delete, k.Back}
}

func (k detailKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Retry, k.Quit}}
}
