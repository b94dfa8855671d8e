package payoff

import (
	"math"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// linear computes a delta-one position: gains the favorable move, loses the adverse one
func linear(fav, adv float64) (right, wrong float64) {
	return fav * 100, contracts.ClampLoss(-adv * 100)
}

func (c *Calculator) equity(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	if q.Price <= 0 {
		return nil, contracts.DataUnavailable("price")
	}

	fav, adv := ScenarioMoves(q.Volatility, c.holdingDays)
	right, wrong := linear(fav, adv)

	profile := c.base(q, inst)
	profile.ReturnIfRightPct = right
	profile.ReturnIfWrongPct = wrong
	profile.Leverage = 1
	profile.TimeHorizon = c.horizon()
	profile.ExecutionDetails["direction"] = string(inst.ExposureDirection())
	profile.ExecutionDetails["price"] = q.Price
	profile.ExecutionDetails["shares_per_100"] = contracts.CapitalBasis / q.Price
	profile.ExecutionDetails["vol_source"] = string(volSource(q.Volatility))
	return profile, nil
}

// LeveragedETFDecay is the annualized volatility drag of a daily-rebalanced
// fund with factor f on an underlying with annualized volatility sigma: (f²−f)/2 × σ²
func LeveragedETFDecay(factor, sigma float64) float64 {
	return math.Max(0, (factor*factor-factor)/2*sigma*sigma)
}

func (c *Calculator) leveragedETF(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	if q.Price <= 0 {
		return nil, contracts.DataUnavailable("price")
	}

	factor := math.Abs(q.LeverageFactor)
	if factor == 0 {
		factor = inst.Leverage
	}
	if factor == 0 {
		return nil, contracts.DataUnavailable("leverage_factor")
	}

	// 레버리지 ETF 종가 변동성에는 이미 배수가 반영됨
	fav, adv := ScenarioMoves(q.Volatility, c.holdingDays)
	right, wrong := linear(fav, adv)

	underlyingSigma := DefaultMove * math.Sqrt(365.0/float64(c.holdingDays)) / factor
	if volSource(q.Volatility) == contracts.VolRealized {
		underlyingSigma = q.Volatility.Annualized / factor
	}

	profile := c.base(q, inst)
	profile.ReturnIfRightPct = right
	profile.ReturnIfWrongPct = wrong
	profile.Leverage = factor
	profile.TimeHorizon = c.horizon()
	profile.TimeCost = q.ExpenseRatio + LeveragedETFDecay(factor, underlyingSigma)
	profile.ExecutionDetails["direction"] = string(inst.ExposureDirection())
	profile.ExecutionDetails["price"] = q.Price
	profile.ExecutionDetails["leverage_factor"] = q.LeverageFactor
	profile.ExecutionDetails["expense_ratio"] = q.ExpenseRatio
	profile.ExecutionDetails["vol_source"] = string(volSource(q.Volatility))
	return profile, nil
}
