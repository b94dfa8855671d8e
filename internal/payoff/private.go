package payoff

import (
	"math"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

const (
	// DefaultExitMultiple is assumed when discovery supplies no exit_multiple hint
	DefaultExitMultiple = 3.0

	// PrivateHorizon is the planning horizon for private placements
	PrivateHorizon = 5 * 365 * 24 * time.Hour
)

func (c *Calculator) private(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	if q.Price <= 0 && q.Valuation <= 0 {
		return nil, contracts.DataUnavailable("valuation")
	}

	multiple := inst.Hints.ExitMultiple
	assumed := multiple == 0
	if assumed {
		multiple = DefaultExitMultiple
	}

	profile := c.base(q, inst)
	profile.ReturnIfRightPct = (multiple - 1) * 100
	profile.ReturnIfWrongPct = contracts.MaxLossPct
	profile.CapitalRequired = math.Max(contracts.CapitalBasis, q.MinInvestment)
	profile.Leverage = 1
	profile.TimeHorizon = PrivateHorizon
	profile.ExecutionDetails["valuation"] = q.Valuation
	profile.ExecutionDetails["min_investment"] = q.MinInvestment
	profile.ExecutionDetails["exit_multiple"] = multiple
	profile.ExecutionDetails["exit_multiple_assumed"] = assumed
	return profile, nil
}
