package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search  key.Binding
	PrevDay key.Binding
	NextDay key.Binding
	Today   key.Binding
	Date    key.Binding
	Filter  key.Binding
	History key.Binding
	Help    key.Binding
	Quit    key.Binding

	// table navigation, listed in help only
	Scroll key.Binding
	Page   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Search:  key.NewBinding(key.WithKeys("enter", "b"), key.WithHelp("enter/b", "buscar")),
		PrevDay: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "día anterior")),
		NextDay: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "día siguiente")),
		Today:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "hoy")),
		Date:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "fecha")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filtrar")),
		History: key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "historial")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "ayuda")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "salir")),
		Scroll:  key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "mover")),
		Page:    key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "página")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.PrevDay, k.NextDay, k.Date, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Date, k.Today, k.PrevDay, k.NextDay},
		{k.Filter, k.History, k.Help, k.Quit},
		{k.Scroll, k.Page},
	}
}
