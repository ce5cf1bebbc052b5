package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Back     key.Binding
	Forward  key.Binding
	StepBack key.Binding
	StepFwd  key.Binding
	PageBack key.Binding
	PageFwd  key.Binding
	Start    key.Binding
	End      key.Binding
	Jump     key.Binding
	Purge    key.Binding
	Sort     key.Binding
	Hold     key.Binding
	Copy     key.Binding
	Export   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Back:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "0.1%")),
		Forward:  key.NewBinding(key.WithKeys("right")),
		StepBack: key.NewBinding(key.WithKeys("down"), key.WithHelp("↑/↓", "1%")),
		StepFwd:  key.NewBinding(key.WithKeys("up")),
		PageBack: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgup/pgdn", "10%")),
		PageFwd:  key.NewBinding(key.WithKeys("pgup")),
		Start:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home/end", "start/end")),
		End:      key.NewBinding(key.WithKeys("end")),
		Jump:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "jump")),
		Purge:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "purge")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Hold:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hold")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy layer")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export png")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.StepBack, k.Jump, k.Hold, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Back, k.StepBack, k.PageBack, k.Start},
		{k.Jump, k.Hold, k.Purge, k.Sort},
		{k.Copy, k.Export, k.Help, k.Quit},
	}
}
