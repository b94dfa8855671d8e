package selection

import (
	"fmt"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Selection is the outcome of one scoring pass
type Selection struct {
	Winner         *contracts.ScoredCandidate
	Reason         string
	Ranked         []contracts.ScoredCandidate
	Override       *contracts.Override
	WeakConnection bool // winner below the connection floor
}

// Engine runs screening, ranking and the soft floors as one pure step
type Engine struct {
	policy Policy
	ranker *Ranker
	logger *logger.Logger
}

// NewEngine creates a scoring engine
func NewEngine(policy Policy, log *logger.Logger) *Engine {
	log = log.Module("selection")
	return &Engine{
		policy: policy,
		ranker: NewRanker(policy, NewScreener(log), log),
		logger: log,
	}
}

// Policy returns the active scoring policy
func (e *Engine) Policy() Policy {
	return e.policy
}

// Ranker exposes the underlying ranker
func (e *Engine) Ranker() *Ranker {
	return e.ranker
}

// Select validates, ranks and picks the winner. A nil winner is a valid
// outcome and always carries a reason; malformed candidates abort the pass.
func (e *Engine) Select(candidates []contracts.Candidate) (*Selection, error) {
	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candidates[%d]: %w", i, err)
		}
	}

	ranked := e.ranker.Rank(candidates)
	sel := &Selection{Ranked: ranked}

	if _, reason := Best(ranked); reason != "" {
		sel.Reason = reason
		return sel, nil
	}

	sel.Winner, sel.Override = e.policy.CrossClass(ranked)
	sel.WeakConnection = !e.policy.PassesConnectionFloor(sel.Winner)

	if sel.Override != nil && sel.Override.Replaced {
		e.logger.WithFields(map[string]interface{}{
			"home":       sel.Override.HomeName,
			"challenger": sel.Override.ChallengerName,
		}).Info("Cross-class override applied")
	}

	return sel, nil
}
