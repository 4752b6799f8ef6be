package letter

import (
	"encoding/json"
	"fmt"
)

// Step is the ordinal position in the narrative.
type Step int

const (
	StepIntro      Step = iota // "I was going to write you a letter..."
	StepReflection             // "ups and downs"
	StepQuestion               // the question with Yes / No
)

// Answer is a tri-state: unset until the single terminal choice is made.
type Answer int8

const (
	AnswerUnset Answer = iota
	AnswerYes
	AnswerNo
)

// IsSet reports whether a terminal answer has been given.
func (a Answer) IsSet() bool { return a != AnswerUnset }

// Bool returns the answer as a boolean; ok is false while unset.
func (a Answer) Bool() (value bool, ok bool) {
	switch a {
	case AnswerYes:
		return true, true
	case AnswerNo:
		return false, true
	default:
		return false, false
	}
}

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "unset"
	}
}

// MarshalJSON encodes unset as null so the page can tell it apart from false.
func (a Answer) MarshalJSON() ([]byte, error) {
	v, ok := a.Bool()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON accepts null, true and false.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("answer must be a boolean or null: %w", err)
	}
	switch {
	case v == nil:
		*a = AnswerUnset
	case *v:
		*a = AnswerYes
	default:
		*a = AnswerNo
	}
	return nil
}

// Phase is the coarse state the presentation layer switches on.
type Phase string

const (
	PhaseNarrating  Phase = "narrating"
	PhasePresenting Phase = "presenting"
	PhaseAnswered   Phase = "answered"
	PhaseEscalated  Phase = "escalated"
)

// Offset is a 2D displacement of the escaping button, in viewport units.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the visible interaction area supplied by the presentation layer.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// State is the whole interaction state of one session. It is a value:
// transitions return a new State and never mutate the argument.
type State struct {
	Step             Step    `json:"step"`
	Answer           Answer  `json:"answer"`
	EvasionCount     int     `json:"evasion_count"`
	Escalated        bool    `json:"escalated"`
	PositiveEmphasis float64 `json:"positive_emphasis"`
	EvasionOffset    Offset  `json:"evasion_offset"`
}

// InitialState returns the state a fresh session starts with.
func InitialState(p Policy) State {
	return State{
		Step:             StepIntro,
		Answer:           AnswerUnset,
		PositiveEmphasis: p.EmphasisBase,
	}
}

// Terminal reports whether the interaction is over (answered or escalated).
func (s State) Terminal() bool {
	return s.Answer.IsSet() || s.Escalated
}

// Phase maps the state onto the coarse phase; an answer wins over escalation.
func (s State) Phase(final Step) Phase {
	switch {
	case s.Answer.IsSet():
		return PhaseAnswered
	case s.Escalated:
		return PhaseEscalated
	case s.Step >= final:
		return PhasePresenting
	default:
		return PhaseNarrating
	}
}
