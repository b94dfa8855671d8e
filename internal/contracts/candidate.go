package contracts

import "fmt"

// Candidate is the scoring input: a ReturnProfile plus thesis-specific judgments
type Candidate struct {
	Name                string          `json:"name"`
	Platform            string          `json:"platform"`
	Class               InstrumentClass `json:"class"`
	ThesisBeta          float64         `json:"thesis_beta"`
	RawConvexity        float64         `json:"raw_convexity"`
	TimeCost            float64         `json:"time_cost"`
	LiquidityOK         bool            `json:"liquidity_ok"`
	ThesisContradiction bool            `json:"thesis_contradiction"`
	AlreadyPricedIn     bool            `json:"already_priced_in"`
	TimeMismatch        bool            `json:"time_mismatch"`

	Instrument CandidateInstrument `json:"instrument"`
	Profile    *ReturnProfile      `json:"profile,omitempty"`
	Rationale  string              `json:"rationale,omitempty"`
}

// Validate rejects candidates the scorer cannot interpret
func (c Candidate) Validate() error {
	if c.Name == "" {
		return NewValidationError("candidate.name", "required")
	}
	if c.ThesisBeta < 0 || c.ThesisBeta > 1 {
		return NewValidationError("candidate.thesis_beta", fmt.Sprintf("%.4f not in [0, 1]", c.ThesisBeta))
	}
	if c.RawConvexity < 0 {
		return NewValidationError("candidate.raw_convexity", "must be >= 0")
	}
	if c.TimeCost < 0 {
		return NewValidationError("candidate.time_cost", "must be >= 0")
	}
	return nil
}

// DisqualifyReason names the hard rule that removed a candidate
type DisqualifyReason string

const (
	DisqualifyContradiction DisqualifyReason = "thesis_contradiction"
	DisqualifyIlliquid      DisqualifyReason = "illiquid"
	DisqualifyPricedIn      DisqualifyReason = "already_priced_in"
	DisqualifyTimeMismatch  DisqualifyReason = "time_mismatch"
)

// ScoredCandidate is a Candidate after capping, scoring and disqualification.
// Lives for one routing pass only.
type ScoredCandidate struct {
	Candidate
	Rank             int              `json:"rank,omitempty"` // 1-based among eligible candidates
	Convexity        float64          `json:"convexity"`
	Score            float64          `json:"score"`
	Disqualified     bool             `json:"disqualified"`
	DisqualifyReason DisqualifyReason `json:"disqualify_reason,omitempty"`
}
