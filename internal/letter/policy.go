package letter

import (
	"errors"
	"fmt"
	"time"
)

// Policy holds the tunables of one letter interaction.
// Zero values are not usable, start from DefaultPolicy.
type Policy struct {
	// FinalStep is the option-presenting step; advance never goes past it.
	FinalStep Step
	// EscalationThreshold is the number of "No" attempts that ends the interaction.
	EscalationThreshold int

	EmphasisBase      float64
	EmphasisIncrement float64
	EmphasisMax       float64

	// OffsetDivisor bounds the escaping button: bound = viewport / OffsetDivisor per axis.
	OffsetDivisor float64
	// CelebrationWindow is passed along with the celebrate effect.
	CelebrationWindow time.Duration

	// RecordNegativeClick makes an explicit "No" click a terminal false answer that is submitted.
	// Hovering still evades.
	RecordNegativeClick bool
	// YesAfterEscalation lets chooseYes succeed from the escalated state.
	YesAfterEscalation bool
}

// DefaultPolicy returns the values the letter ships with.
func DefaultPolicy() Policy {
	return Policy{
		FinalStep:           StepQuestion,
		EscalationThreshold: 5,
		EmphasisBase:        1,
		EmphasisIncrement:   0.2,
		EmphasisMax:         2.5,
		OffsetDivisor:       3,
		CelebrationWindow:   3 * time.Second,
	}
}

// Validate проверяет, что политика пригодна для машины состояний.
func (p Policy) Validate() error {
	var errs []error
	if p.FinalStep < StepIntro || int(p.FinalStep) >= len(Narrative) {
		errs = append(errs, fmt.Errorf("final step %d is outside the narrative (0..%d)", p.FinalStep, len(Narrative)-1))
	}
	if p.EscalationThreshold < 1 {
		errs = append(errs, fmt.Errorf("escalation threshold must be positive, got %d", p.EscalationThreshold))
	}
	if p.EmphasisIncrement < 0 {
		errs = append(errs, fmt.Errorf("emphasis increment must not be negative, got %v", p.EmphasisIncrement))
	}
	if p.EmphasisMax < p.EmphasisBase {
		errs = append(errs, fmt.Errorf("emphasis max %v is below base %v", p.EmphasisMax, p.EmphasisBase))
	}
	if p.OffsetDivisor <= 0 {
		errs = append(errs, fmt.Errorf("offset divisor must be positive, got %v", p.OffsetDivisor))
	}
	if p.CelebrationWindow < 0 {
		errs = append(errs, fmt.Errorf("celebration window must not be negative, got %s", p.CelebrationWindow))
	}
	return errors.Join(errs...)
}

// emphasisFor derives the weight of the "Yes" button from the attempt counter.
func (p Policy) emphasisFor(evasions int) float64 {
	return min(p.EmphasisBase+p.EmphasisIncrement*float64(evasions), p.EmphasisMax)
}

func (p Policy) bound(vp Viewport) Offset {
	return Offset{
		X: max(vp.Width, 0) / p.OffsetDivisor,
		Y: max(vp.Height, 0) / p.OffsetDivisor,
	}
}
