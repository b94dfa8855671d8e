package contracts

import (
	"math"
	"time"
)

const (
	// CapitalBasis is the notional every profile is normalized to
	CapitalBasis = 100.0

	// MaxLossPct is the floor for return_if_wrong_pct: total loss of posted capital
	MaxLossPct = -100.0

	// BinaryLeverageSentinel marks binary contracts ("effectively unbounded").
	// It is not a multiplier; check IsBinaryLeverage before using Leverage numerically.
	BinaryLeverageSentinel = 999.0
)

// LiquidityTier buckets venue depth against the reference notional
type LiquidityTier string

const (
	LiquidityHigh   LiquidityTier = "high"
	LiquidityMedium LiquidityTier = "medium"
	LiquidityLow    LiquidityTier = "low"
)

// ReturnProfile is the venue-agnostic risk/return representation on a $100 basis.
// Venue-specific fields go into ExecutionDetails, which scoring never inspects.
type ReturnProfile struct {
	Platform          string         `json:"platform"`
	Ticker            string         `json:"ticker"`
	Kind              InstrumentKind `json:"instrument_kind"`
	ReturnIfRightPct  float64        `json:"return_if_right_pct"`
	ReturnIfWrongPct  float64        `json:"return_if_wrong_pct"`
	CapitalRequired   float64        `json:"capital_required"`
	Leverage          float64        `json:"leverage"`
	TimeHorizon       time.Duration  `json:"time_horizon"`
	LiquidityTier     LiquidityTier  `json:"liquidity_tier"`
	LiquidityOK       bool           `json:"liquidity_ok"`
	MarketImpliedProb *float64       `json:"market_implied_prob,omitempty"`
	TimeCost          float64        `json:"time_cost"`
	Expiry            *time.Time     `json:"expiry,omitempty"`
	ExecutionDetails  map[string]any `json:"execution_details,omitempty"`
}

// IsBinaryLeverage reports whether Leverage holds the binary sentinel
func (p *ReturnProfile) IsBinaryLeverage() bool {
	return p.Leverage == BinaryLeverageSentinel
}

// RawConvexity is the upside multiple on the capital basis:
// (100 + return_if_right) / 100. A 1¢ binary gives 100, a 35¢ one 2.857.
func (p *ReturnProfile) RawConvexity() float64 {
	return math.Max(0, (CapitalBasis+p.ReturnIfRightPct)/CapitalBasis)
}

// ClampLoss applies the -100 floor and the <= 0 ceiling to a wrong-case return
func ClampLoss(pct float64) float64 {
	if pct < MaxLossPct {
		return MaxLossPct
	}
	if pct > 0 {
		return 0
	}
	return pct
}

// TierFor buckets dollar liquidity against a reference notional
func TierFor(liquidityUSD, referenceNotional float64) LiquidityTier {
	switch {
	case liquidityUSD >= referenceNotional*10:
		return LiquidityHigh
	case liquidityUSD >= referenceNotional:
		return LiquidityMedium
	default:
		return LiquidityLow
	}
}
