package payoff

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// PerpInput is the requested exposure plus market state for a perpetual
type PerpInput struct {
	Entry         float64
	Direction     contracts.Direction
	Leverage      float64
	MaxLeverage   float64 // 0 = venue reports no limit
	FundingRate   float64 // per funding period, positive = longs pay
	PeriodsPerDay float64
	HoldingDays   int
	MoveFavorable float64
	MoveAdverse   float64
}

// PerpPayoff is the $100-margin outcome of a leveraged perpetual position
type PerpPayoff struct {
	PnlIfRight       float64 `json:"pnl_if_right"`
	PnlIfWrong       float64 `json:"pnl_if_wrong"`
	FundingCostPct   float64 `json:"funding_cost_pct"`
	ReturnIfRightPct float64 `json:"return_if_right_pct"`
	ReturnIfWrongPct float64 `json:"return_if_wrong_pct"`
	LiquidationPrice float64 `json:"liquidation_price"`
	HoldingPeriods   float64 `json:"holding_periods"`
}

// Perpetual computes scenario returns for a leveraged perpetual.
// Leverage above the venue maximum fails; it is never clamped.
func Perpetual(in PerpInput) (PerpPayoff, error) {
	if in.Entry <= 0 {
		return PerpPayoff{}, contracts.DataUnavailable("mark_price")
	}
	if in.Leverage <= 0 {
		return PerpPayoff{}, fmt.Errorf("%w: leverage %v", contracts.ErrValidation, in.Leverage)
	}
	if in.MaxLeverage > 0 && in.Leverage > in.MaxLeverage {
		return PerpPayoff{}, fmt.Errorf("%w: requested %gx, venue max %gx", contracts.ErrLeverageExceeded, in.Leverage, in.MaxLeverage)
	}

	sign := in.Direction.Sign()
	if sign == 0 {
		sign = 1
	}

	periods := float64(in.HoldingDays) * in.PeriodsPerDay
	out := PerpPayoff{
		PnlIfRight:     in.Leverage * in.MoveFavorable,
		PnlIfWrong:     -in.Leverage * in.MoveAdverse,
		FundingCostPct: sign * in.FundingRate * in.Leverage * periods,
		HoldingPeriods: periods,
	}
	out.ReturnIfRightPct = (out.PnlIfRight - out.FundingCostPct) * 100
	out.ReturnIfWrongPct = contracts.ClampLoss((out.PnlIfWrong - out.FundingCostPct) * 100)

	// 청산가: long = entry × (1 − 1/L), short = entry × (1 + 1/L)
	if sign > 0 {
		out.LiquidationPrice = math.Max(0, in.Entry*(1-1/in.Leverage))
	} else {
		out.LiquidationPrice = in.Entry * (1 + 1/in.Leverage)
	}

	return out, nil
}

// FundingTimeCost annualizes funding drag as a fraction of posted margin.
// Received funding is not treated as negative cost.
func FundingTimeCost(direction contracts.Direction, fundingRate, leverage, periodsPerDay float64) float64 {
	sign := direction.Sign()
	if sign == 0 {
		sign = 1
	}
	return math.Max(0, sign*fundingRate*leverage*periodsPerDay*365)
}

func periodsPerDay(interval time.Duration) float64 {
	if interval <= 0 {
		interval = time.Hour
	}
	return float64(24*time.Hour) / float64(interval)
}

func (c *Calculator) perpetual(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	if q.FundingRate == nil {
		return nil, contracts.DataUnavailable("funding_rate")
	}

	leverage := inst.Leverage
	if leverage == 0 {
		leverage = 1
	}

	fav, adv := ScenarioMoves(q.Volatility, c.holdingDays)
	ppd := periodsPerDay(q.FundingInterval)
	direction := inst.ExposureDirection()

	pay, err := Perpetual(PerpInput{
		Entry:         q.Price,
		Direction:     direction,
		Leverage:      leverage,
		MaxLeverage:   q.MaxLeverage,
		FundingRate:   *q.FundingRate,
		PeriodsPerDay: ppd,
		HoldingDays:   c.holdingDays,
		MoveFavorable: fav,
		MoveAdverse:   adv,
	})
	if err != nil {
		return nil, err
	}

	profile := c.base(q, inst)
	profile.ReturnIfRightPct = pay.ReturnIfRightPct
	profile.ReturnIfWrongPct = pay.ReturnIfWrongPct
	profile.Leverage = leverage
	profile.TimeHorizon = c.horizon()
	profile.TimeCost = FundingTimeCost(direction, *q.FundingRate, leverage, ppd)
	profile.ExecutionDetails["direction"] = string(direction)
	profile.ExecutionDetails["entry_price"] = q.Price
	profile.ExecutionDetails["liquidation_price"] = pay.LiquidationPrice
	profile.ExecutionDetails["funding_rate"] = *q.FundingRate
	profile.ExecutionDetails["funding_cost_pct"] = pay.FundingCostPct * 100
	profile.ExecutionDetails["holding_periods"] = pay.HoldingPeriods
	profile.ExecutionDetails["move_favorable"] = fav
	profile.ExecutionDetails["move_adverse"] = adv
	profile.ExecutionDetails["vol_source"] = string(volSource(q.Volatility))
	return profile, nil
}

func volSource(v contracts.Volatility) contracts.VolSource {
	if v.Source == contracts.VolRealized && v.Annualized > 0 {
		return contracts.VolRealized
	}
	return contracts.VolFallback
}
