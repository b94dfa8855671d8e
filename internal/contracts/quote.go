package contracts

import "time"

// VolSource tells downstream consumers how a volatility estimate was obtained
type VolSource string

const (
	VolRealized VolSource = "realized"
	VolFallback VolSource = "fallback"
)

// Volatility is an annualized volatility estimate
type Volatility struct {
	Annualized float64   `json:"annualized"`
	Points     int       `json:"points"`
	Source     VolSource `json:"source"`
}

// RawQuote is a venue-native market snapshot converted to a common shape.
// Created fresh per request and never cached by the router.
type RawQuote struct {
	Platform string         `json:"platform"`
	Ticker   string         `json:"ticker"`
	Kind     InstrumentKind `json:"instrument_kind"`
	Title    string         `json:"title,omitempty"`

	// Price is the entry price; for binaries it is the buy probability in (0, 1)
	Price float64 `json:"price"`
	Bid   float64 `json:"bid,omitempty"`
	Ask   float64 `json:"ask,omitempty"`

	// Liquidity, all in USD
	Volume24h    float64 `json:"volume_24h"`
	OpenInterest float64 `json:"open_interest"`
	LiquidityUSD float64 `json:"liquidity_usd"`

	// Perpetuals
	FundingRate     *float64      `json:"funding_rate,omitempty"` // per funding period
	FundingInterval time.Duration `json:"funding_interval,omitempty"`
	MaxLeverage     float64       `json:"max_leverage,omitempty"`

	// Options / binaries
	Expiry      *time.Time `json:"expiry,omitempty"`
	Underlying  float64    `json:"underlying,omitempty"`
	Strike      float64    `json:"strike,omitempty"`
	OptionRight string     `json:"option_right,omitempty"`
	ImpliedVol  float64    `json:"implied_vol,omitempty"`

	// Leveraged ETFs
	LeverageFactor float64 `json:"leverage_factor,omitempty"`
	ExpenseRatio   float64 `json:"expense_ratio,omitempty"`

	// Private placements
	Valuation     float64 `json:"valuation,omitempty"`
	MinInvestment float64 `json:"min_investment,omitempty"`
	Remaining     float64 `json:"remaining_allocation,omitempty"`

	Volatility Volatility     `json:"volatility"`
	Extra      map[string]any `json:"extra,omitempty"`
	FetchedAt  time.Time      `json:"fetched_at"`
}
