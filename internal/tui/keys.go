package tui

import (
	"valentine-server/internal/letter"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Continue key.Binding
	Left     key.Binding
	Right    key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

// phaseHelp is the part of the key map that does something in the current phase.
type phaseHelp []key.Binding

func (h phaseHelp) ShortHelp() []key.Binding  { return h }
func (h phaseHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h} }

func (k keyMap) forPhase(phase letter.Phase, yesAvailable bool) phaseHelp {
	switch phase {
	case letter.PhaseNarrating:
		return phaseHelp{k.Continue, k.Quit}
	case letter.PhasePresenting:
		return phaseHelp{k.Continue, k.Left, k.Right, k.Quit}
	case letter.PhaseEscalated:
		if yesAvailable {
			return phaseHelp{k.Continue, k.Reset, k.Quit}
		}
		return phaseHelp{k.Reset, k.Quit}
	default:
		return phaseHelp{k.Quit}
	}
}

var defaultKeys = keyMap{
	Continue: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Left:     key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "yes")),
	Right:    key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "no")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "try again")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}
