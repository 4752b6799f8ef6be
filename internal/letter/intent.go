package letter

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownIntent is returned by ParseIntentKind for anything outside the intent set.
var ErrUnknownIntent = errors.New("unknown intent")

// IntentKind is a user intent coming from a presentation layer.
type IntentKind string

const (
	IntentAdvance   IntentKind = "advance"
	IntentChooseYes IntentKind = "choose_yes"
	// IntentChooseNo и IntentHoverNo для машины одно и то же, кроме RecordNegativeClick.
	IntentChooseNo IntentKind = "choose_no"
	IntentHoverNo  IntentKind = "hover_no"
	IntentReset    IntentKind = "reset"
)

func ParseIntentKind(s string) (IntentKind, error) {
	switch k := IntentKind(s); k {
	case IntentAdvance, IntentChooseYes, IntentChooseNo, IntentHoverNo, IntentReset:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// Intent is one input to Transition. Viewport matters only for the "No" intents.
type Intent struct {
	Kind     IntentKind
	Viewport Viewport
}

// EffectKind names a side-effect request emitted by a transition.
type EffectKind string

const (
	EffectSubmitAnswer EffectKind = "submit_answer"
	EffectCelebrate    EffectKind = "celebrate"
)

// Effect is a request for the caller to do something outside the machine.
// Answer is set for EffectSubmitAnswer, Duration for EffectCelebrate.
type Effect struct {
	Kind     EffectKind
	Answer   bool
	Duration time.Duration
}

func SubmitAnswer(answer bool) Effect {
	return Effect{Kind: EffectSubmitAnswer, Answer: answer}
}

func Celebrate(d time.Duration) Effect {
	return Effect{Kind: EffectCelebrate, Duration: d}
}
