package tui

import (
	"errors"
	"testing"
	"time"

	"valentine-server/internal/letter"
	"valentine-server/internal/submission"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchRecorder struct {
	answers []bool
}

func (d *dispatchRecorder) dispatch(answer bool) bool {
	d.answers = append(d.answers, answer)
	return len(d.answers) == 1
}

func newTestModel(t *testing.T, p letter.Policy) (Model, *dispatchRecorder) {
	t.Helper()
	rec := &dispatchRecorder{}
	src := letter.OffsetFunc(func(b letter.Offset) letter.Offset { return letter.Offset{X: -b.X, Y: b.Y} })
	m := New(letter.NewMachine(p, src), rec.dispatch)
	return update(t, m, tea.WindowSizeMsg{Width: 90, Height: 30}), rec
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func toQuestion(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyEnter)
	m, _ = press(t, m, tea.KeyEnter)
	require.Equal(t, letter.StepQuestion, m.State().Step)
	return m
}

func TestModel_NarrativeAndYes(t *testing.T) {
	m, rec := newTestModel(t, letter.DefaultPolicy())
	assert.Contains(t, m.View(), "handwriting")

	m, _ = press(t, m, tea.KeyEnter)
	assert.Contains(t, m.View(), "ups and downs")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Contains(t, m.View(), "Will you be my Valentine?")

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd, "celebration tick expected")
	assert.Equal(t, letter.AnswerYes, m.State().Answer)
	assert.Equal(t, []bool{true}, rec.answers)
	assert.True(t, m.celebrating)
	assert.Contains(t, m.View(), letter.AnsweredTitle)

	m = update(t, m, celebrationDoneMsg{})
	assert.False(t, m.celebrating)

	// ответ терминален
	m, _ = press(t, m, tea.KeyEnter)
	assert.Len(t, rec.answers, 1)
}

func TestModel_FocusNoEvades(t *testing.T) {
	m, rec := newTestModel(t, letter.DefaultPolicy())
	m = toQuestion(t, m)

	m, _ = press(t, m, tea.KeyRight)
	st := m.State()
	assert.Equal(t, 1, st.EvasionCount)
	assert.Equal(t, letter.Offset{X: -30, Y: 10}, st.EvasionOffset)

	// Enter на "No" при политике по умолчанию тоже уклонение
	for range 4 {
		m, _ = press(t, m, tea.KeyEnter)
	}
	assert.True(t, m.State().Escalated)
	assert.Contains(t, m.View(), letter.EscalatedTitle)
	assert.Empty(t, rec.answers)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, letter.InitialState(letter.DefaultPolicy()), m.State())
}

func TestModel_RecordNegativeClick(t *testing.T) {
	p := letter.DefaultPolicy()
	p.RecordNegativeClick = true
	m, rec := newTestModel(t, p)
	m = toQuestion(t, m)

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyEnter)

	assert.Equal(t, letter.AnswerNo, m.State().Answer)
	assert.Equal(t, []bool{false}, rec.answers)

	view := m.View()
	assert.Contains(t, view, letter.DeclinedTitle)
	assert.Contains(t, view, letter.DeclinedLine)
	assert.NotContains(t, view, letter.AnsweredTitle)
	assert.NotContains(t, view, "say yes")
}

func TestModel_YesAfterEscalation(t *testing.T) {
	t.Run("Disabled by default", func(t *testing.T) {
		m, rec := newTestModel(t, letter.DefaultPolicy())
		m = toQuestion(t, m)
		for range 5 {
			m, _ = press(t, m, tea.KeyRight)
		}
		require.True(t, m.State().Escalated)
		assert.NotContains(t, m.View(), letter.YesLabel)

		m, _ = press(t, m, tea.KeyEnter)
		assert.Equal(t, letter.AnswerUnset, m.State().Answer)
		assert.Empty(t, rec.answers)
	})

	t.Run("Enabled by policy", func(t *testing.T) {
		p := letter.DefaultPolicy()
		p.YesAfterEscalation = true
		m, rec := newTestModel(t, p)
		m = toQuestion(t, m)
		for range 5 {
			m, _ = press(t, m, tea.KeyRight)
		}
		require.True(t, m.State().Escalated)
		assert.Contains(t, m.View(), letter.YesLabel)

		m, cmd := press(t, m, tea.KeyEnter)
		require.NotNil(t, cmd, "celebration tick expected")
		assert.Equal(t, letter.AnswerYes, m.State().Answer)
		assert.Equal(t, []bool{true}, rec.answers)
		assert.Contains(t, m.View(), letter.AnsweredTitle)
	})
}

func TestModel_HelpFollowsPhase(t *testing.T) {
	m, _ := newTestModel(t, letter.DefaultPolicy())
	view := m.View()
	assert.Contains(t, view, "select")
	assert.NotContains(t, view, "try again")
	assert.NotContains(t, view, "→")

	m = toQuestion(t, m)
	view = m.View()
	assert.Contains(t, view, "→")
	assert.NotContains(t, view, "try again")

	m, _ = press(t, m, tea.KeyEnter)
	require.Equal(t, letter.AnswerYes, m.State().Answer)
	view = m.View()
	assert.Contains(t, view, "quit")
	assert.NotContains(t, view, "try again")
	assert.NotContains(t, view, "←")
	assert.NotContains(t, view, "select")
}

func TestModel_FailureNotice(t *testing.T) {
	m, _ := newTestModel(t, letter.DefaultPolicy())
	m = toQuestion(t, m)
	m, _ = press(t, m, tea.KeyEnter)

	n := submission.FailureNotice()
	m = update(t, m, ResultMsg{Result: submission.Result{Answer: true, Err: errors.New("boom"), Notice: &n}})

	view := m.View()
	assert.Contains(t, view, letter.NoticeTitle)
	assert.Contains(t, view, letter.AnsweredTitle, "the answer stays recorded locally")
	assert.Equal(t, letter.AnswerYes, m.State().Answer)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, letter.DefaultPolicy())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_CelebrationTick(t *testing.T) {
	p := letter.DefaultPolicy()
	p.CelebrationWindow = time.Millisecond
	m, _ := newTestModel(t, p)
	m = toQuestion(t, m)

	_, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, celebrationDoneMsg{}, cmd())
}
