package selection

import (
	"math"
	"sort"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Ranker computes the unified score and orders candidates
// ⭐ SSOT: 점수 계산 및 랭킹은 여기서만
type Ranker struct {
	policy   Policy
	screener *Screener
	logger   *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(policy Policy, screener *Screener, logger *logger.Logger) *Ranker {
	return &Ranker{
		policy:   policy,
		screener: screener,
		logger:   logger,
	}
}

// Convexity caps raw convexity so cheap lottery tickets cannot dominate
func (r *Ranker) Convexity(raw float64) float64 {
	if math.IsNaN(raw) || raw < 0 {
		return 0
	}
	return math.Min(raw, r.policy.ConvexityCap)
}

// Score = thesis_beta × convexity / (1 + time_cost)
func (r *Ranker) Score(c contracts.Candidate) float64 {
	return c.ThesisBeta * r.Convexity(c.RawConvexity) / (1 + math.Max(0, c.TimeCost))
}

// Rank scores, screens and orders candidates. Eligible candidates come first
// by descending score with 1-based ranks; disqualified ones follow in input order.
// Ties keep input order.
func (r *Ranker) Rank(candidates []contracts.Candidate) []contracts.ScoredCandidate {
	scored := make([]contracts.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = contracts.ScoredCandidate{
			Candidate: c,
			Convexity: r.Convexity(c.RawConvexity),
			Score:     r.Score(c),
		}
	}

	eligible := r.screener.Screen(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Disqualified != scored[j].Disqualified {
			return !scored[i].Disqualified
		}
		if scored[i].Disqualified {
			return false
		}
		return scored[i].Score > scored[j].Score
	})

	for i := 0; i < eligible; i++ {
		scored[i].Rank = i + 1
	}

	if eligible > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total":     len(scored),
			"eligible":  eligible,
			"top_score": scored[0].Score,
			"top_name":  scored[0].Name,
		}).Debug("Ranking completed")
	}

	return scored
}

// Best returns the top eligible candidate of a ranked list, or nil with a reason
func Best(ranked []contracts.ScoredCandidate) (*contracts.ScoredCandidate, string) {
	if len(ranked) == 0 {
		return nil, contracts.ReasonNoCandidates
	}
	for i := range ranked {
		if !ranked[i].Disqualified {
			winner := ranked[i]
			return &winner, ""
		}
	}
	return nil, contracts.ReasonAllDisqualified
}
