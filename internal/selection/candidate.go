package selection

import (
	"strings"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// NewCandidate derives the scoring input from a profile plus thesis judgments
func NewCandidate(
	thesis contracts.Thesis,
	inst contracts.CandidateInstrument,
	profile *contracts.ReturnProfile,
	judgment contracts.Judgment,
	policy Policy,
) contracts.Candidate {
	c := contracts.Candidate{
		Name:            inst.Name(),
		Platform:        inst.Platform,
		Class:           inst.Kind.Class(),
		ThesisBeta:      clamp01(judgment.ThesisBeta),
		RawConvexity:    profile.RawConvexity(),
		TimeCost:        profile.TimeCost,
		LiquidityOK:     profile.LiquidityOK,
		AlreadyPricedIn: judgment.AlreadyPricedIn,
		Instrument:      inst,
		Profile:         profile,
		Rationale:       strings.TrimSpace(judgment.Rationale),
	}

	// 방향 충돌: 둘 다 알려진 경우에만
	exposure := inst.ExposureDirection()
	c.ThesisContradiction = judgment.Contradiction ||
		(thesis.Direction != "" && exposure != "" && exposure != thesis.Direction)

	if p := profile.MarketImpliedProb; p != nil && *p >= policy.PricedInProbability {
		c.AlreadyPricedIn = true
	}

	if thesis.CatalystDate != nil && profile.Expiry != nil && profile.Expiry.Before(*thesis.CatalystDate) {
		c.TimeMismatch = true
	}

	if c.TimeCost < 0 {
		c.TimeCost = 0
	}

	return c
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
