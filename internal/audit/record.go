package audit

import (
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// RunRecord is the flattened audit row for one routing pass
type RunRecord struct {
	RunID          string                    `json:"run_id"`
	ThesisID       string                    `json:"thesis_id"`
	Claim          string                    `json:"claim"`
	Winner         string                    `json:"winner,omitempty"`
	WinnerPlatform string                    `json:"winner_platform,omitempty"`
	WinnerClass    contracts.InstrumentClass `json:"winner_class,omitempty"`
	WinnerScore    float64                   `json:"winner_score"`
	Reason         string                    `json:"reason,omitempty"`
	Override       bool                      `json:"override"`
	WeakConnection bool                      `json:"weak_connection"`
	Rediscovered   bool                      `json:"rediscovered"`
	Dropped        int                       `json:"dropped"`
	ConfigHash     string                    `json:"config_hash,omitempty"`
	StartedAt      time.Time                 `json:"started_at"`
	Duration       time.Duration             `json:"duration"`

	Result *contracts.RouteResult `json:"result,omitempty"`
}

// NewRunRecord flattens a route result for storage
func NewRunRecord(thesis contracts.Thesis, result *contracts.RouteResult, configHash string) *RunRecord {
	rec := &RunRecord{
		ThesisID:   thesis.ID,
		Claim:      thesis.Claim,
		ConfigHash: configHash,
		Result:     result,
	}
	if result == nil {
		return rec
	}

	rec.RunID = result.RunID
	if result.ThesisID != "" {
		rec.ThesisID = result.ThesisID
	}
	rec.Reason = result.Reason
	rec.WeakConnection = result.WeakConnection
	rec.Rediscovered = result.Rediscovered
	rec.Dropped = len(result.Dropped)
	rec.StartedAt = result.StartedAt
	rec.Duration = result.Duration
	rec.Override = result.Override != nil && result.Override.Replaced

	if w := result.Winner; w != nil {
		rec.Winner = w.Name
		rec.WinnerPlatform = w.Platform
		rec.WinnerClass = w.Class
		rec.WinnerScore = w.Score
	}
	return rec
}
