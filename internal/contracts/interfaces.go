package contracts

import "context"

// QuoteAdapter converts one venue's raw market data into a RawQuote
// ⭐ SSOT: 거래소별 시세 조회 인터페이스
//
// Implementations fail with ErrNotFound, ErrRateLimited or ErrUpstream
// (wrapped) and retry a throttled call at most once.
type QuoteAdapter interface {
	Platform() string
	Supports(kind InstrumentKind) bool
	Quote(ctx context.Context, inst CandidateInstrument) (*RawQuote, error)
}

// ProfileCalculator turns a RawQuote plus requested exposure into a ReturnProfile
type ProfileCalculator interface {
	Profile(quote *RawQuote, inst CandidateInstrument) (*ReturnProfile, error)
}

// Judgment holds the thesis-specific judgments for one candidate
type Judgment struct {
	ThesisBeta      float64 `json:"thesis_beta"`
	Contradiction   bool    `json:"thesis_contradiction"`
	AlreadyPricedIn bool    `json:"already_priced_in"`
	Rationale       string  `json:"rationale,omitempty"`
}

// Judge assesses how directly an instrument expresses a thesis
type Judge interface {
	Assess(ctx context.Context, thesis Thesis, inst CandidateInstrument, profile *ReturnProfile) (Judgment, error)
}

// Rediscoverer re-runs the upstream discovery step once when the winner is weakly connected
type Rediscoverer interface {
	Rediscover(ctx context.Context, thesis Thesis, previous []CandidateInstrument) ([]CandidateInstrument, error)
}

// ResultSink receives finished routing results (audit log, queue, websocket hub)
type ResultSink interface {
	Publish(ctx context.Context, thesis Thesis, result *RouteResult) error
}
