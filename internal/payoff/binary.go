package payoff

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// BinaryPayoff is the shared payoff primitive for every prediction-market venue
// ⭐ SSOT: 바이너리 확률 계산은 여기서만
type BinaryPayoff struct {
	Probability      float64 `json:"probability"`
	ReturnIfRightPct float64 `json:"return_if_right_pct"`
	ReturnIfWrongPct float64 `json:"return_if_wrong_pct"`
	BreakevenPct     float64 `json:"conviction_breakeven_pct"`
	ContractsPer100  int64   `json:"contracts_per_100"`
}

var hundred = decimal.NewFromInt(100)

// Binary computes the $100-basis payoff of buying a contract at probability p
func Binary(p float64) (BinaryPayoff, error) {
	if !(p > 0 && p < 1) {
		return BinaryPayoff{}, fmt.Errorf("%w: probability %v outside (0, 1)", contracts.ErrDataUnavailable, p)
	}

	prob := decimal.NewFromFloat(p)
	perHundred := hundred.Div(prob)

	return BinaryPayoff{
		Probability:      p,
		ReturnIfRightPct: perHundred.Sub(hundred).InexactFloat64(),
		ReturnIfWrongPct: contracts.MaxLossPct,
		BreakevenPct:     prob.Mul(hundred).InexactFloat64(),
		ContractsPer100:  perHundred.Floor().IntPart(),
	}, nil
}

func (c *Calculator) binary(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	p := q.Price
	if p <= 0 {
		p = q.Ask
	}
	if p <= 0 {
		return nil, contracts.DataUnavailable("probability")
	}

	pay, err := Binary(p)
	if err != nil {
		return nil, err
	}

	prob := pay.Probability
	profile := c.base(q, inst)
	profile.ReturnIfRightPct = pay.ReturnIfRightPct
	profile.ReturnIfWrongPct = pay.ReturnIfWrongPct
	profile.Leverage = contracts.BinaryLeverageSentinel
	profile.MarketImpliedProb = &prob
	profile.TimeHorizon = c.horizonUntil(q.Expiry)
	profile.ExecutionDetails["side"] = sideOf(inst.Kind)
	profile.ExecutionDetails["contracts_per_100"] = pay.ContractsPer100
	profile.ExecutionDetails["conviction_breakeven_pct"] = pay.BreakevenPct
	return profile, nil
}

func sideOf(kind contracts.InstrumentKind) string {
	if kind == contracts.KindBinaryNo {
		return "NO"
	}
	return "YES"
}
