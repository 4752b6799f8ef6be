// Package tui renders the letter in a terminal with bubbletea.
// Focusing the "No" button counts as hovering it.
package tui

import (
	"strings"
	"time"

	"valentine-server/internal/letter"
	"valentine-server/internal/submission"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg delivers a finished submission into the update loop.
type ResultMsg struct {
	Result submission.Result
}

type celebrationDoneMsg struct{}

type focus int

const (
	focusYes focus = iota
	focusNo
)

// DispatchFunc starts the background submission; it must be safe to call more than once.
type DispatchFunc func(answer bool) bool

// Model is the bubbletea model of one terminal session.
type Model struct {
	machine  *letter.Machine
	dispatch DispatchFunc

	focus       focus
	width       int
	height      int
	celebrating bool
	notice      *submission.Notice

	keys keyMap
	help help.Model
}

func New(machine *letter.Machine, dispatch DispatchFunc) Model {
	return Model{
		machine:  machine,
		dispatch: dispatch,
		width:    80,
		height:   24,
		keys:     defaultKeys,
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd { return nil }

// State exposes the machine state, mostly for tests.
func (m Model) State() letter.State { return m.machine.State() }

func (m Model) viewport() letter.Viewport {
	return letter.Viewport{Width: float64(m.width), Height: float64(m.height)}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ResultMsg:
		if !msg.Result.OK() && msg.Result.Notice != nil {
			n := *msg.Result.Notice
			m.notice = &n
		}
		return m, nil

	case celebrationDoneMsg:
		m.celebrating = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.machine.Phase() {
	case letter.PhaseNarrating:
		if key.Matches(msg, m.keys.Continue) {
			m.machine.Advance()
		}
	case letter.PhasePresenting:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.focus = focusYes
		case key.Matches(msg, m.keys.Right):
			m.focus = focusNo
			return m, m.apply(letter.Intent{Kind: letter.IntentHoverNo, Viewport: m.viewport()})
		case key.Matches(msg, m.keys.Continue):
			if m.focus == focusYes {
				return m, m.apply(letter.Intent{Kind: letter.IntentChooseYes})
			}
			return m, m.apply(letter.Intent{Kind: letter.IntentChooseNo, Viewport: m.viewport()})
		}
	case letter.PhaseEscalated:
		switch {
		case key.Matches(msg, m.keys.Reset):
			m.machine.Reset()
			m.focus = focusYes
		case key.Matches(msg, m.keys.Continue) && m.machine.YesAvailable():
			return m, m.apply(letter.Intent{Kind: letter.IntentChooseYes})
		}
	}
	return m, nil
}

// apply runs the intent and turns its effects into commands.
func (m *Model) apply(in letter.Intent) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.machine.Apply(in) {
		switch e.Kind {
		case letter.EffectSubmitAnswer:
			if m.dispatch != nil {
				m.dispatch(e.Answer)
			}
		case letter.EffectCelebrate:
			m.celebrating = true
			cmds = append(cmds, tea.Tick(e.Duration, func(time.Time) tea.Msg { return celebrationDoneMsg{} }))
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder
	st := m.machine.State()

	switch m.machine.Phase() {
	case letter.PhaseAnswered:
		title, line := letter.Outcome(st.Answer)
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n\n")
		b.WriteString(lineStyle.Render(line))
		if m.celebrating {
			b.WriteString("\n\n")
			b.WriteString(heartStyle.Render(strings.Repeat("❤ ", 12)))
		}
	case letter.PhaseEscalated:
		b.WriteString(titleStyle.Render(letter.EscalatedTitle))
		b.WriteString("\n\n")
		b.WriteString(lineStyle.Render(letter.EscalatedLine))
		b.WriteString("\n\n")
		if m.machine.YesAvailable() {
			b.WriteString(focusedStyle.Render(yesStyle.Padding(0, 2).Render(letter.YesLabel)))
			b.WriteString("  ")
		}
		b.WriteString(noStyle.Render(letter.ResetLabel + " (r)"))
	default:
		scene := letter.SceneFor(st.Step)
		for i, line := range scene.Lines {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(lineStyle.Width(min(60, max(20, m.width-10))).Render(line))
		}
		b.WriteString("\n\n")
		if m.machine.Phase() == letter.PhasePresenting {
			b.WriteString(m.renderChoices(st))
		} else if scene.Action != "" {
			b.WriteString(yesStyle.Padding(0, 2).Render(scene.Action + " ⏎"))
		}
	}

	out := cardStyle.Render(b.String())
	if m.notice != nil {
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			noticeStyle.Render(titleStyle.Render(m.notice.Title)+"\n"+m.notice.Body))
	}
	return out + "\n" + m.help.View(m.keys.forPhase(m.machine.Phase(), m.machine.YesAvailable())) + "\n"
}

// renderChoices scales "Yes" by the emphasis and shifts "No" by the evasion offset in cells.
func (m Model) renderChoices(st letter.State) string {
	pad := int(st.PositiveEmphasis*2 + 0.5)
	yes := yesStyle.Padding(pad/3, pad).Render(letter.YesLabel)
	if m.focus == focusYes {
		yes = focusedStyle.Render(yes)
	}

	divisor := m.machine.Policy().OffsetDivisor
	left := max(0, int(st.EvasionOffset.X+float64(m.width)/divisor/2))
	top := max(0, int(st.EvasionOffset.Y+float64(m.height)/divisor/2)) / 2
	no := lipgloss.NewStyle().MarginLeft(left).MarginTop(top).Render(noStyle.Render(letter.NoLabel))

	return lipgloss.JoinHorizontal(lipgloss.Top, yes, no)
}
