// Package letter implements the interaction state machine of the Valentine letter:
// narrative steps, the escaping "No" button and the single terminal answer.
//
// The package has no I/O. Transition returns side-effect requests (submit, celebrate)
// and the caller decides how to perform them.
package letter

// Transition applies one intent to s and returns the next state and the effects to perform.
// It is deterministic given src; intents that do not apply return s unchanged and no effects.
func Transition(s State, in Intent, p Policy, src OffsetSource) (State, []Effect) {
	switch in.Kind {
	case IntentAdvance:
		return advance(s, p), nil
	case IntentChooseYes:
		return chooseYes(s, p)
	case IntentChooseNo:
		return chooseOrEvadeNo(s, p, src, in.Viewport, true)
	case IntentHoverNo:
		return chooseOrEvadeNo(s, p, src, in.Viewport, false)
	case IntentReset:
		return reset(s, p), nil
	default:
		return s, nil
	}
}

func advance(s State, p Policy) State {
	if s.Terminal() || s.Step >= p.FinalStep {
		return s
	}
	s.Step++
	return s
}

func chooseYes(s State, p Policy) (State, []Effect) {
	if s.Answer.IsSet() {
		return s, nil
	}
	if s.Escalated && !p.YesAfterEscalation {
		return s, nil
	}
	s.Answer = AnswerYes
	return s, []Effect{SubmitAnswer(true), Celebrate(p.CelebrationWindow)}
}

// chooseOrEvadeNo обрабатывает и клик, и наведение на "No".
// explicit различает их только при включённом RecordNegativeClick.
func chooseOrEvadeNo(s State, p Policy, src OffsetSource, vp Viewport, explicit bool) (State, []Effect) {
	if s.Terminal() {
		return s, nil
	}
	if explicit && p.RecordNegativeClick {
		s.Answer = AnswerNo
		return s, []Effect{SubmitAnswer(false)}
	}

	s.EvasionCount++
	s.PositiveEmphasis = p.emphasisFor(s.EvasionCount)
	if s.EvasionCount >= p.EscalationThreshold {
		// offset остаётся прежним, кнопка больше не показывается
		s.Escalated = true
		return s, nil
	}
	s.EvasionOffset = src.Offset(p.bound(vp))
	return s, nil
}

func reset(s State, p Policy) State {
	if !s.Escalated || s.Answer.IsSet() {
		return s
	}
	return InitialState(p)
}

// Machine is a stateful wrapper over Transition for one session.
// It is not safe for concurrent use; each session drives it from a single goroutine.
type Machine struct {
	policy  Policy
	offsets OffsetSource
	state   State
}

func NewMachine(p Policy, src OffsetSource) *Machine {
	return &Machine{
		policy:  p,
		offsets: src,
		state:   InitialState(p),
	}
}

func (m *Machine) State() State   { return m.state }
func (m *Machine) Policy() Policy { return m.policy }
func (m *Machine) Phase() Phase   { return m.state.Phase(m.policy.FinalStep) }

// YesAvailable reports whether chooseYes can still succeed: on the question,
// or after escalation when the policy allows it.
func (m *Machine) YesAvailable() bool {
	switch m.Phase() {
	case PhasePresenting:
		return true
	case PhaseEscalated:
		return m.policy.YesAfterEscalation
	default:
		return false
	}
}

// Apply runs one intent and returns its effects.
func (m *Machine) Apply(in Intent) []Effect {
	next, effects := Transition(m.state, in, m.policy, m.offsets)
	m.state = next
	return effects
}

func (m *Machine) Advance() {
	m.Apply(Intent{Kind: IntentAdvance})
}

func (m *Machine) ChooseYes() []Effect {
	return m.Apply(Intent{Kind: IntentChooseYes})
}

// ChooseOrEvadeNo is the explicit "No" click; hovering goes through Apply with IntentHoverNo.
func (m *Machine) ChooseOrEvadeNo(vp Viewport) []Effect {
	return m.Apply(Intent{Kind: IntentChooseNo, Viewport: vp})
}

func (m *Machine) Reset() {
	m.Apply(Intent{Kind: IntentReset})
}
