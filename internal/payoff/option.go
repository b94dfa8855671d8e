package payoff

import (
	"math"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Intrinsic is the exercise value of one option share at underlying price s
func Intrinsic(right string, strike, s float64) float64 {
	if right == contracts.OptionPut {
		return math.Max(0, strike-s)
	}
	return math.Max(0, s-strike)
}

// OptionTimeCost annualizes the extrinsic share of the premium: extrinsic/premium × 365/DTE
func OptionTimeCost(premium, intrinsic float64, dte float64) float64 {
	if premium <= 0 || dte <= 0 {
		return 0
	}
	extrinsic := math.Max(0, premium-intrinsic)
	return extrinsic / premium * 365 / dte
}

func (c *Calculator) option(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	premium := q.Price
	if premium <= 0 {
		premium = q.Ask
	}
	if premium <= 0 {
		return nil, contracts.DataUnavailable("premium")
	}
	if q.Underlying <= 0 {
		return nil, contracts.DataUnavailable("underlying")
	}

	expiry := q.Expiry
	if expiry == nil {
		expiry = inst.Expiry
	}
	if expiry == nil {
		return nil, contracts.DataUnavailable("expiry")
	}

	strike := q.Strike
	if strike <= 0 {
		strike = inst.Strike
	}
	right := q.OptionRight
	if right == "" {
		right = inst.OptionRight
	}

	dte := math.Max(1, expiry.Sub(c.now()).Hours()/24)
	days := int(math.Min(float64(c.holdingDays), math.Ceil(dte)))

	vol := q.Volatility
	if q.ImpliedVol > 0 {
		vol = contracts.Volatility{Annualized: q.ImpliedVol, Source: contracts.VolRealized}
	}
	fav, adv := ScenarioMoves(vol, days)

	// 테제가 맞으면 기초자산이 옵션에 유리한 방향으로 fav 만큼 이동
	sFav, sAdv := q.Underlying*(1+fav), q.Underlying*(1-adv)
	if right == contracts.OptionPut {
		sFav, sAdv = q.Underlying*(1-fav), q.Underlying*(1+adv)
	}

	intrinsicNow := Intrinsic(right, strike, q.Underlying)
	profile := c.base(q, inst)
	profile.ReturnIfRightPct = (Intrinsic(right, strike, sFav)/premium - 1) * 100
	profile.ReturnIfWrongPct = contracts.ClampLoss((Intrinsic(right, strike, sAdv)/premium - 1) * 100)
	profile.Leverage = q.Underlying / premium
	profile.TimeHorizon = time.Duration(days) * 24 * time.Hour
	profile.TimeCost = OptionTimeCost(premium, intrinsicNow, dte)
	profile.Expiry = expiry
	profile.ExecutionDetails["premium"] = premium
	profile.ExecutionDetails["strike"] = strike
	profile.ExecutionDetails["option_right"] = right
	profile.ExecutionDetails["underlying"] = q.Underlying
	profile.ExecutionDetails["contracts_per_100"] = math.Floor(contracts.CapitalBasis / (premium * 100))
	profile.ExecutionDetails["days_to_expiry"] = dte
	profile.ExecutionDetails["vol_source"] = string(volSource(vol))
	return profile, nil
}
