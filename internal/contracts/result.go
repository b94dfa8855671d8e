package contracts

import "time"

// Reasons returned alongside a null winner
const (
	ReasonNoCandidates    = "no candidates found"
	ReasonAllDisqualified = "all candidates disqualified"
)

// DroppedCandidate records a candidate removed before scoring
type DroppedCandidate struct {
	Instrument CandidateInstrument `json:"instrument"`
	Reason     string              `json:"reason"` // taxonomy label, see Classify
	Error      string              `json:"error"`
}

// Override describes a cross-class challenger decision
type Override struct {
	HomeName        string  `json:"home"`
	HomeScore       float64 `json:"home_score"`
	ChallengerName  string  `json:"challenger"`
	ChallengerScore float64 `json:"challenger_score"`
	Replaced        bool    `json:"replaced"`
}

// RouteResult is what the calling collaborator receives.
// Winner is nil when no trade is recommended; Reason then says why.
type RouteResult struct {
	RunID          string             `json:"run_id"`
	ThesisID       string             `json:"thesis_id"`
	Winner         *ScoredCandidate   `json:"winner"`
	Reason         string             `json:"reason,omitempty"`
	Ranked         []ScoredCandidate  `json:"ranked"`
	Dropped        []DroppedCandidate `json:"dropped,omitempty"`
	Override       *Override          `json:"override,omitempty"`
	WeakConnection bool               `json:"weak_connection"`
	Rediscovered   bool               `json:"rediscovered"`
	StartedAt      time.Time          `json:"started_at"`
	Duration       time.Duration      `json:"duration"`
}

// HasWinner reports whether a trade was recommended
func (r *RouteResult) HasWinner() bool {
	return r != nil && r.Winner != nil
}
