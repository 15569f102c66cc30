package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Top, Bottom    key.Binding
	Open, View, Search, Sort key.Binding
	Status, Category, Today  key.Binding
	Clear, Edit, New, Delete key.Binding
	Undo, Redo, UndoBulk     key.Binding
	AI, Bulk, Digest, Chat   key.Binding
	Copy, Refresh, Login     key.Binding
	Help, Quit               key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:      key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
		Bottom:   key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		View:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "cards/table/kanban")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Status:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		Category: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "category filter")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today only")),
		Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new entry")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "redo")),
		UndoBulk: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "undo bulk AI")),
		AI:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "AI action")),
		Bulk:     key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "AI enhance all")),
		Digest:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "AI digest")),
		Chat:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "ask AI")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign in")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.View, k.Search, k.Edit, k.New, k.Undo, k.AI, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Open, k.View, k.Refresh},
		{k.Search, k.Sort, k.Status, k.Category, k.Today, k.Clear},
		{k.Edit, k.New, k.Delete, k.Undo, k.Redo, k.Copy},
		{k.AI, k.Bulk, k.UndoBulk, k.Digest, k.Chat, k.Login, k.Quit},
	}
}
