package brain

import (
	"context"
	"fmt"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// CandidateSearcher finds instruments matching free text on one venue
type CandidateSearcher interface {
	Candidates(ctx context.Context, query string, side contracts.Direction, limit int) ([]contracts.CandidateInstrument, error)
}

// SearchRediscoverer rediscovers by searching venues with the thesis claim
type SearchRediscoverer struct {
	searchers []CandidateSearcher
	limit     int
	logger    *logger.Logger
}

const defaultRediscoverLimit = 5

// NewSearchRediscoverer creates a rediscoverer over the given venues
func NewSearchRediscoverer(limit int, log *logger.Logger, searchers ...CandidateSearcher) *SearchRediscoverer {
	if limit <= 0 {
		limit = defaultRediscoverLimit
	}
	return &SearchRediscoverer{
		searchers: searchers,
		limit:     limit,
		logger:    log.Module("rediscover"),
	}
}

// Rediscover implements contracts.Rediscoverer.
// Instruments already in previous are filtered out; one failing venue does not fail the rest.
func (s *SearchRediscoverer) Rediscover(ctx context.Context, thesis contracts.Thesis, previous []contracts.CandidateInstrument) ([]contracts.CandidateInstrument, error) {
	known := make(map[string]bool, len(previous))
	for _, inst := range previous {
		known[inst.Key()] = true
	}

	side := thesis.Direction
	if side == "" {
		side = contracts.DirectionLong
	}

	var (
		out     []contracts.CandidateInstrument
		lastErr error
		failed  int
	)
	for _, searcher := range s.searchers {
		found, err := searcher.Candidates(ctx, thesis.Claim, side, s.limit)
		if err != nil {
			failed++
			lastErr = err
			s.logger.WithError(err).WithField("searcher", fmt.Sprintf("%T", searcher)).Warn("Search failed")
			continue
		}
		for _, inst := range found {
			if !known[inst.Key()] {
				known[inst.Key()] = true
				out = append(out, inst)
			}
		}
	}

	if failed > 0 && failed == len(s.searchers) {
		return nil, fmt.Errorf("rediscover: every search failed: %w", lastErr)
	}
	return out, nil
}
