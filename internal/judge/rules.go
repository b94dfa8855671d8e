package judge

import (
	"context"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// DefaultThesisBeta is used when discovery supplied no beta hint
const DefaultThesisBeta = 0.5

// Rules judges from discovery hints and the thesis direction only.
// It never fails and never calls out.
type Rules struct {
	defaultBeta float64
}

// NewRules creates a rule-based judge
func NewRules(defaultBeta float64) *Rules {
	if defaultBeta < 0 || defaultBeta > 1 {
		defaultBeta = DefaultThesisBeta
	}
	return &Rules{defaultBeta: defaultBeta}
}

// Assess implements contracts.Judge
func (r *Rules) Assess(_ context.Context, thesis contracts.Thesis, inst contracts.CandidateInstrument, _ *contracts.ReturnProfile) (contracts.Judgment, error) {
	j := contracts.Judgment{ThesisBeta: r.defaultBeta, Rationale: "default beta"}

	if b := inst.Hints.ThesisBeta; b != nil {
		j.ThesisBeta = *b
		j.Rationale = "discovery hint"
	}

	exposure := inst.ExposureDirection()
	if thesis.Direction != "" && exposure != "" && exposure != thesis.Direction {
		j.Contradiction = true
	}

	return applyHints(j, inst.Hints), nil
}

// applyHints lets caller-asserted facts override any derived judgment
func applyHints(j contracts.Judgment, h contracts.Hints) contracts.Judgment {
	if h.ThesisBeta != nil {
		j.ThesisBeta = *h.ThesisBeta
	}
	if h.Contradiction != nil {
		j.Contradiction = *h.Contradiction
	}
	if h.AlreadyPricedIn != nil {
		j.AlreadyPricedIn = *h.AlreadyPricedIn
	}
	j.ThesisBeta = clampBeta(j.ThesisBeta)
	return j
}

func clampBeta(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
