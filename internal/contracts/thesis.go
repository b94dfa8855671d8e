package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the side of an exposure or of a thesis claim
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long, -1 for short and 0 when unknown
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	default:
		return 0
	}
}

// Opposite returns the other side; unknown stays unknown
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLong:
		return DirectionShort
	case DirectionShort:
		return DirectionLong
	default:
		return d
	}
}

// Valid reports whether d is empty or a known side
func (d Direction) Valid() bool {
	return d == "" || d == DirectionLong || d == DirectionShort
}

// Thesis is a claim about future market direction to be expressed as a trade.
// Owned by the caller; the router never mutates it.
type Thesis struct {
	ID           string     `json:"id"`
	Claim        string     `json:"claim"`
	Direction    Direction  `json:"direction,omitempty"`
	CatalystDate *time.Time `json:"catalyst_date,omitempty"` // when the thesis is expected to resolve
}

// Validate checks the caller-supplied thesis
func (t Thesis) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewValidationError("thesis.id", "required")
	}
	if strings.TrimSpace(t.Claim) == "" {
		return NewValidationError("thesis.claim", "required")
	}
	if !t.Direction.Valid() {
		return NewValidationError("thesis.direction", fmt.Sprintf("unknown direction %q", t.Direction))
	}
	return nil
}

// InstrumentKind discriminates the payoff shape of a candidate
type InstrumentKind string

const (
	KindEquity       InstrumentKind = "equity"
	KindOption       InstrumentKind = "option"
	KindLeveragedETF InstrumentKind = "leveraged_etf"
	KindPerpetual    InstrumentKind = "perpetual"
	KindBinaryYes    InstrumentKind = "binary_yes"
	KindBinaryNo     InstrumentKind = "binary_no"
	KindPrivate      InstrumentKind = "private"
)

// AllKinds returns every supported instrument kind
func AllKinds() []InstrumentKind {
	return []InstrumentKind{
		KindEquity, KindOption, KindLeveragedETF, KindPerpetual,
		KindBinaryYes, KindBinaryNo, KindPrivate,
	}
}

// Valid reports whether k is a supported kind
func (k InstrumentKind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsBinary reports whether k is a prediction-market contract
func (k InstrumentKind) IsBinary() bool {
	return k == KindBinaryYes || k == KindBinaryNo
}

// InstrumentClass groups kinds for the cross-class override
type InstrumentClass string

const (
	ClassSecurities InstrumentClass = "securities"
	ClassPerpetual  InstrumentClass = "perpetual"
	ClassBinary     InstrumentClass = "binary"
	ClassPrivate    InstrumentClass = "private"
)

// Class maps an instrument kind to its class
func (k InstrumentKind) Class() InstrumentClass {
	switch k {
	case KindPerpetual:
		return ClassPerpetual
	case KindBinaryYes, KindBinaryNo:
		return ClassBinary
	case KindPrivate:
		return ClassPrivate
	default:
		return ClassSecurities
	}
}

// Option rights
const (
	OptionCall = "call"
	OptionPut  = "put"
)

// Hints are optional thesis-specific judgments supplied by the discovery step
type Hints struct {
	ThesisBeta      *float64 `json:"thesis_beta,omitempty"`
	Contradiction   *bool    `json:"thesis_contradiction,omitempty"`
	AlreadyPricedIn *bool    `json:"already_priced_in,omitempty"`
	ExitMultiple    float64  `json:"exit_multiple,omitempty"` // private placements: assumed exit / entry valuation
}

// CandidateInstrument is one tradable expression of a thesis on one venue,
// plus the requested exposure. Produced upstream, read-only here.
type CandidateInstrument struct {
	Platform    string         `json:"platform"`
	Ticker      string         `json:"ticker"`
	Kind        InstrumentKind `json:"instrument_kind"`
	Direction   Direction      `json:"direction,omitempty"`
	Leverage    float64        `json:"leverage,omitempty"`
	Strike      float64        `json:"strike,omitempty"`
	OptionRight string         `json:"option_right,omitempty"`
	Expiry      *time.Time     `json:"expiry,omitempty"`
	Hints       Hints          `json:"hints,omitempty"`
}

// Key identifies the candidate within one request
func (c CandidateInstrument) Key() string {
	return fmt.Sprintf("%s:%s:%s", c.Platform, c.Ticker, c.Kind)
}

// Name is the human label used in ranked output
func (c CandidateInstrument) Name() string {
	switch c.Kind {
	case KindOption:
		return fmt.Sprintf("%s %g %s", c.Ticker, c.Strike, c.OptionRight)
	case KindPerpetual:
		if c.Leverage > 0 {
			return fmt.Sprintf("%s-PERP %s %gx", c.Ticker, c.ExposureDirection(), c.Leverage)
		}
		return c.Ticker + "-PERP"
	case KindBinaryYes:
		return c.Ticker + " YES"
	case KindBinaryNo:
		return c.Ticker + " NO"
	default:
		return c.Ticker
	}
}

// ExposureDirection resolves the effective side of the exposure.
// Calls are long, puts short; binaries follow YES=long / NO=short.
func (c CandidateInstrument) ExposureDirection() Direction {
	if c.Direction != "" {
		return c.Direction
	}
	switch c.Kind {
	case KindOption:
		if c.OptionRight == OptionPut {
			return DirectionShort
		}
		return DirectionLong
	case KindBinaryNo:
		return DirectionShort
	case KindEquity, KindLeveragedETF, KindBinaryYes, KindPrivate, KindPerpetual:
		return DirectionLong
	}
	return ""
}

// Validate checks a single candidate instrument
func (c CandidateInstrument) Validate() error {
	if strings.TrimSpace(c.Platform) == "" {
		return NewValidationError("candidate.platform", "required")
	}
	if strings.TrimSpace(c.Ticker) == "" {
		return NewValidationError("candidate.ticker", "required")
	}
	if !c.Kind.Valid() {
		return NewValidationError("candidate.instrument_kind", fmt.Sprintf("unknown kind %q", c.Kind))
	}
	if !c.Direction.Valid() {
		return NewValidationError("candidate.direction", fmt.Sprintf("unknown direction %q", c.Direction))
	}
	if c.Leverage < 0 {
		return NewValidationError("candidate.leverage", "must be >= 0")
	}
	if c.Kind == KindOption {
		if c.OptionRight != OptionCall && c.OptionRight != OptionPut {
			return NewValidationError("candidate.option_right", "must be call or put")
		}
		if c.Strike <= 0 {
			return NewValidationError("candidate.strike", "must be > 0 for options")
		}
	}
	if b := c.Hints.ThesisBeta; b != nil && (*b < 0 || *b > 1) {
		return NewValidationError("candidate.hints.thesis_beta", "must be in [0, 1]")
	}
	if c.Hints.ExitMultiple < 0 {
		return NewValidationError("candidate.hints.exit_multiple", "must be >= 0")
	}
	return nil
}

// RouteRequest is the input to one routing pass
type RouteRequest struct {
	Thesis     Thesis                `json:"thesis"`
	Candidates []CandidateInstrument `json:"candidates"`
}

// Validate rejects malformed requests as a whole
func (r RouteRequest) Validate() error {
	if err := r.Thesis.Validate(); err != nil {
		return err
	}
	for i, c := range r.Candidates {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candidates[%d]: %w", i, err)
		}
	}
	return nil
}
