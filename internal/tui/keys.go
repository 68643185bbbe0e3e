package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Down          key.Binding
	Up            key.Binding
	Select        key.Binding
	Collapse      key.Binding
	Expand        key.Binding
	FoldCycle     key.Binding
	FoldCycleBack key.Binding
	UnfoldAll     key.Binding
	FoldFirst     key.Binding

	NewTab   key.Binding
	CloseTab key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding

	Filter  key.Binding
	Search  key.Binding
	Follow  key.Binding
	Refresh key.Binding
	Flat    key.Binding

	Promote    key.Binding
	Demote     key.Binding
	Mark       key.Binding
	Paste      key.Binding
	ClearMarks key.Binding
	NewNote    key.Binding
	Delete     key.Binding
	Edit       key.Binding
	GUIEdit    key.Binding
	Yank       key.Binding
	Jump       key.Binding

	Connect        key.Binding
	AutoSync       key.Binding
	RefreshPreview key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	b := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}
	return keyMap{
		Down:          b("j/↓", "down", "j", "down"),
		Up:            b("k/↑", "up", "k", "up"),
		Select:        b("enter", "select", "enter"),
		Collapse:      b("h", "collapse", "h", "left"),
		Expand:        b("l", "expand", "l", "right"),
		FoldCycle:     b("z", "fold →", "z"),
		FoldCycleBack: b("Z", "← fold", "Z"),
		UnfoldAll:     b("o", "unfold", "o"),
		FoldFirst:     b("O", "level 1", "O"),

		NewTab:   b("t", "new tab", "t"),
		CloseTab: b("ctrl+w", "close tab", "ctrl+w"),
		NextTab:  b(">", "next tab", ">"),
		PrevTab:  b("<", "prev tab", "<"),

		Filter:  b("f", "filter", "f"),
		Search:  b("s", "search", "s"),
		Follow:  b("F", "follow", "F"),
		Refresh: b("r", "refresh", "r"),
		Flat:    b("f5", "flat view", "f5"),

		Promote:    b("H", "promote", "H"),
		Demote:     b("L", "demote", "L"),
		Mark:       b("x", "mark", "x"),
		Paste:      b("p", "paste", "p"),
		ClearMarks: b("esc", "clear marks", "esc"),
		NewNote:    b("n", "new note", "n"),
		Delete:     b("D", "delete", "D"),
		Edit:       b("e", "edit", "e"),
		GUIEdit:    b("E", "gui edit", "E"),
		Yank:       b("y", "yank link", "y"),
		Jump:       b("'", "jump", "'"),

		Connect:        b("g", "gui preview", "g"),
		AutoSync:       b("G", "auto-sync", "G"),
		RefreshPreview: b("R", "refresh preview", "R"),

		Help: b("?", "help", "?"),
		Quit: b("q", "quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Search, k.Edit, k.NewNote, k.Mark, k.Paste, k.Connect, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.Select, k.Collapse, k.Expand, k.FoldCycle, k.FoldCycleBack, k.UnfoldAll, k.FoldFirst},
		{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab, k.Filter, k.Search, k.Follow, k.Refresh, k.Flat},
		{k.Promote, k.Demote, k.Mark, k.Paste, k.ClearMarks, k.NewNote, k.Delete, k.Edit, k.GUIEdit},
		{k.Yank, k.Jump, k.Connect, k.AutoSync, k.RefreshPreview, k.Help, k.Quit},
	}
}
