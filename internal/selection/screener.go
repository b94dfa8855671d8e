package selection

import (
	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Screener applies the hard disqualifiers
// ⭐ SSOT: 하드 컷 (실격) 로직은 여기서만
type Screener struct {
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(logger *logger.Logger) *Screener {
	return &Screener{logger: logger}
}

// Evaluate returns the first disqualifier that applies, in fixed precedence:
// thesis_contradiction > illiquid > already_priced_in > time_mismatch
func (s *Screener) Evaluate(c contracts.Candidate) (contracts.DisqualifyReason, bool) {
	switch {
	case c.ThesisContradiction:
		return contracts.DisqualifyContradiction, true
	case !c.LiquidityOK:
		return contracts.DisqualifyIlliquid, true
	case c.AlreadyPricedIn:
		return contracts.DisqualifyPricedIn, true
	case c.TimeMismatch:
		return contracts.DisqualifyTimeMismatch, true
	}
	return "", false
}

// Screen marks disqualified candidates in place and returns the eligible count
func (s *Screener) Screen(scored []contracts.ScoredCandidate) int {
	filtered := make(map[contracts.DisqualifyReason]int)
	eligible := 0

	for i := range scored {
		reason, out := s.Evaluate(scored[i].Candidate)
		scored[i].Disqualified = out
		scored[i].DisqualifyReason = reason
		if out {
			filtered[reason]++
			continue
		}
		eligible++
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(scored),
		"eligible":     eligible,
		"filtered_out": len(scored) - eligible,
		"filters":      filtered,
	}).Debug("Screening completed")

	return eligible
}
