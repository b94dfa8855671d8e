package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/thesisrouter/pkg/logger"
)

// Analyzer aggregates stored routing runs
// ⭐ SSOT: 라우팅 결과 통계는 여기서만
type Analyzer struct {
	repository *Repository
	logger     *logger.Logger
	now        func() time.Time
}

// NewAnalyzer creates a new routing run analyzer
func NewAnalyzer(repository *Repository, log *logger.Logger) *Analyzer {
	return &Analyzer{
		repository: repository,
		logger:     log,
		now:        time.Now,
	}
}

// Summary describes routing outcomes over a period
type Summary struct {
	Period    string    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Runs       int `json:"runs"`
	WithWinner int `json:"with_winner"`
	NoTrade    int `json:"no_trade"`

	// 비율 (0..1)
	OverrideRate     float64 `json:"override_rate"`
	WeakRate         float64 `json:"weak_connection_rate"`
	RediscoveredRate float64 `json:"rediscovered_rate"`

	AvgWinnerScore float64       `json:"avg_winner_score"`
	AvgDuration    time.Duration `json:"avg_duration"`
	AvgDropped     float64       `json:"avg_dropped"`

	WinsByPlatform map[string]int `json:"wins_by_platform"`
	WinsByClass    map[string]int `json:"wins_by_class"`
	NoTradeReasons map[string]int `json:"no_trade_reasons"`
	TopPlatform    string         `json:"top_platform,omitempty"`
}

// Analyze summarizes runs for a period (1D, 1W, 1M, 3M); thesisID may be empty
func (a *Analyzer) Analyze(ctx context.Context, period, thesisID string) (*Summary, error) {
	start, end := a.parsePeriod(period)

	runs, err := a.repository.ListRuns(ctx, thesisID, start, 10_000)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	s := Summarize(runs)
	s.Period = period
	s.StartDate = start
	s.EndDate = end

	a.logger.WithFields(map[string]interface{}{
		"period":       period,
		"thesis_id":    thesisID,
		"runs":         s.Runs,
		"with_winner":  s.WithWinner,
		"top_platform": s.TopPlatform,
	}).Info("Routing summary completed")

	return s, nil
}

// parsePeriod parses period string to date range
func (a *Analyzer) parsePeriod(period string) (time.Time, time.Time) {
	end := a.now()

	switch period {
	case "1D":
		return end.AddDate(0, 0, -1), end
	case "1W":
		return end.AddDate(0, 0, -7), end
	case "3M":
		return end.AddDate(0, -3, 0), end
	default:
		return end.AddDate(0, -1, 0), end
	}
}

// Summarize aggregates runs without touching storage
func Summarize(runs []*RunRecord) *Summary {
	s := &Summary{
		WinsByPlatform: make(map[string]int),
		WinsByClass:    make(map[string]int),
		NoTradeReasons: make(map[string]int),
	}

	var (
		scoreSum    float64
		durationSum time.Duration
		droppedSum  int
		overrides   int
		weak        int
		rediscover  int
	)

	for _, r := range runs {
		if r == nil {
			continue
		}
		s.Runs++
		durationSum += r.Duration
		droppedSum += r.Dropped
		if r.Override {
			overrides++
		}
		if r.WeakConnection {
			weak++
		}
		if r.Rediscovered {
			rediscover++
		}

		if r.Winner == "" {
			s.NoTrade++
			s.NoTradeReasons[r.Reason]++
			continue
		}
		s.WithWinner++
		scoreSum += r.WinnerScore
		s.WinsByPlatform[r.WinnerPlatform]++
		s.WinsByClass[string(r.WinnerClass)]++
	}

	if s.Runs == 0 {
		return s
	}

	n := float64(s.Runs)
	s.OverrideRate = float64(overrides) / n
	s.WeakRate = float64(weak) / n
	s.RediscoveredRate = float64(rediscover) / n
	s.AvgDuration = durationSum / time.Duration(s.Runs)
	s.AvgDropped = float64(droppedSum) / n
	if s.WithWinner > 0 {
		s.AvgWinnerScore = scoreSum / float64(s.WithWinner)
	}
	s.TopPlatform = topKey(s.WinsByPlatform)

	return s
}

// topKey returns the most frequent key; ties break alphabetically
func topKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestN := "", 0
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
