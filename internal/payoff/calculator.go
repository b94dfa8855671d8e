package payoff

import (
	"fmt"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Calculator converts a RawQuote plus requested exposure into a ReturnProfile
// ⭐ SSOT: 수익 프로파일 정규화는 여기서만 ($100 기준)
type Calculator struct {
	referenceNotional float64
	holdingDays       int
	now               func() time.Time
}

// Options configures a Calculator
type Options struct {
	ReferenceNotional float64 // liquidity check notional (USD)
	HoldingDays       int     // planning horizon shared by all candidates
	Now               func() time.Time
}

// Defaults
const (
	DefaultReferenceNotional = 100_000.0
	DefaultHoldingDays       = 30
)

// NewCalculator creates a calculator; zero options fall back to defaults
func NewCalculator(opts Options) *Calculator {
	c := &Calculator{
		referenceNotional: opts.ReferenceNotional,
		holdingDays:       opts.HoldingDays,
		now:               opts.Now,
	}
	if c.referenceNotional <= 0 {
		c.referenceNotional = DefaultReferenceNotional
	}
	if c.holdingDays <= 0 {
		c.holdingDays = DefaultHoldingDays
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// HoldingDays returns the planning horizon in days
func (c *Calculator) HoldingDays() int {
	return c.holdingDays
}

// Profile builds the ReturnProfile for one candidate. Missing price inputs
// fail with ErrDataUnavailable; the caller drops only this candidate.
func (c *Calculator) Profile(q *contracts.RawQuote, inst contracts.CandidateInstrument) (*contracts.ReturnProfile, error) {
	if q == nil {
		return nil, contracts.DataUnavailable("quote")
	}

	var (
		profile *contracts.ReturnProfile
		err     error
	)

	switch inst.Kind {
	case contracts.KindBinaryYes, contracts.KindBinaryNo:
		profile, err = c.binary(q, inst)
	case contracts.KindPerpetual:
		profile, err = c.perpetual(q, inst)
	case contracts.KindEquity:
		profile, err = c.equity(q, inst)
	case contracts.KindLeveragedETF:
		profile, err = c.leveragedETF(q, inst)
	case contracts.KindOption:
		profile, err = c.option(q, inst)
	case contracts.KindPrivate:
		profile, err = c.private(q, inst)
	default:
		return nil, contracts.NewValidationError("instrument_kind", fmt.Sprintf("unknown kind %q", inst.Kind))
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", inst.Platform, inst.Ticker, err)
	}

	profile.ReturnIfWrongPct = contracts.ClampLoss(profile.ReturnIfWrongPct)
	return profile, nil
}

// base fills the venue-agnostic fields shared by every kind
func (c *Calculator) base(q *contracts.RawQuote, inst contracts.CandidateInstrument) *contracts.ReturnProfile {
	expiry := q.Expiry
	if expiry == nil {
		expiry = inst.Expiry
	}

	profile := &contracts.ReturnProfile{
		Platform:        inst.Platform,
		Ticker:          inst.Ticker,
		Kind:            inst.Kind,
		CapitalRequired: contracts.CapitalBasis,
		LiquidityTier:   contracts.TierFor(q.LiquidityUSD, c.referenceNotional),
		LiquidityOK:     q.LiquidityUSD >= c.referenceNotional,
		Expiry:          expiry,
		ExecutionDetails: map[string]any{
			"liquidity_usd": q.LiquidityUSD,
			"volume_24h":    q.Volume24h,
		},
	}
	if q.Title != "" {
		profile.ExecutionDetails["title"] = q.Title
	}
	return profile
}

func (c *Calculator) horizon() time.Duration {
	return time.Duration(c.holdingDays) * 24 * time.Hour
}

// horizonUntil is the time left to expiry, or the planning horizon when unknown
func (c *Calculator) horizonUntil(expiry *time.Time) time.Duration {
	if expiry == nil {
		return c.horizon()
	}
	if d := expiry.Sub(c.now()); d > 0 {
		return d
	}
	return 0
}
