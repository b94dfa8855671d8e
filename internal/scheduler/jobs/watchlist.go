package jobs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/notify"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// =============================================================================
// Watchlist file
// =============================================================================

// Watchlist is the YAML file of theses re-routed on a schedule
type Watchlist struct {
	Theses []WatchEntry `yaml:"theses"`
}

// WatchEntry is one watched thesis and its candidate instruments
type WatchEntry struct {
	Thesis     WatchThesis      `yaml:"thesis"`
	Candidates []WatchCandidate `yaml:"candidates"`
}

// WatchThesis mirrors contracts.Thesis
type WatchThesis struct {
	ID           string     `yaml:"id"`
	Claim        string     `yaml:"claim"`
	Direction    string     `yaml:"direction"`
	CatalystDate *time.Time `yaml:"catalyst_date"`
}

// WatchCandidate mirrors contracts.CandidateInstrument
type WatchCandidate struct {
	Platform    string     `yaml:"platform"`
	Ticker      string     `yaml:"ticker"`
	Kind        string     `yaml:"instrument_kind"`
	Direction   string     `yaml:"direction"`
	Leverage    float64    `yaml:"leverage"`
	Strike      float64    `yaml:"strike"`
	OptionRight string     `yaml:"option_right"`
	Expiry      *time.Time `yaml:"expiry"`
	Hints       WatchHints `yaml:"hints"`
}

// WatchHints mirrors contracts.Hints
type WatchHints struct {
	ThesisBeta      *float64 `yaml:"thesis_beta"`
	Contradiction   *bool    `yaml:"thesis_contradiction"`
	AlreadyPricedIn *bool    `yaml:"already_priced_in"`
	ExitMultiple    float64  `yaml:"exit_multiple"`
}

// LoadWatchlist reads and validates a watchlist file
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes a watchlist strictly; unknown keys are errors
func ParseWatchlist(data []byte) (*Watchlist, error) {
	var wl Watchlist
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wl); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist: %w", err)
	}

	seen := make(map[string]bool, len(wl.Theses))
	for i, e := range wl.Theses {
		req := e.Request()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("theses[%d]: %w", i, err)
		}
		if seen[req.Thesis.ID] {
			return nil, fmt.Errorf("theses[%d]: duplicate thesis id %q", i, req.Thesis.ID)
		}
		seen[req.Thesis.ID] = true
	}
	return &wl, nil
}

// Request converts the entry into a routing request
func (e WatchEntry) Request() contracts.RouteRequest {
	req := contracts.RouteRequest{
		Thesis: contracts.Thesis{
			ID:           e.Thesis.ID,
			Claim:        e.Thesis.Claim,
			Direction:    contracts.Direction(e.Thesis.Direction),
			CatalystDate: e.Thesis.CatalystDate,
		},
		Candidates: make([]contracts.CandidateInstrument, 0, len(e.Candidates)),
	}
	for _, c := range e.Candidates {
		req.Candidates = append(req.Candidates, contracts.CandidateInstrument{
			Platform:    c.Platform,
			Ticker:      c.Ticker,
			Kind:        contracts.InstrumentKind(c.Kind),
			Direction:   contracts.Direction(c.Direction),
			Leverage:    c.Leverage,
			Strike:      c.Strike,
			OptionRight: c.OptionRight,
			Expiry:      c.Expiry,
			Hints: contracts.Hints{
				ThesisBeta:      c.Hints.ThesisBeta,
				Contradiction:   c.Hints.Contradiction,
				AlreadyPricedIn: c.Hints.AlreadyPricedIn,
				ExitMultiple:    c.Hints.ExitMultiple,
			},
		})
	}
	return req
}

// =============================================================================
// Job
// =============================================================================

// RouteRunner runs one routing pass
type RouteRunner interface {
	Route(ctx context.Context, req contracts.RouteRequest) (*contracts.RouteResult, error)
}

// WatchlistJob re-routes every watched thesis and reports winner changes.
// The first pass after start only records a baseline.
type WatchlistJob struct {
	path     string
	schedule string
	router   RouteRunner
	notifier notify.Notifier
	logger   *logger.Logger

	mu   sync.Mutex
	last map[string]*contracts.RouteResult
}

// NewWatchlistJob creates a new watchlist job
func NewWatchlistJob(path, schedule string, router RouteRunner, notifier notify.Notifier, log *logger.Logger) *WatchlistJob {
	return &WatchlistJob{
		path:     path,
		schedule: schedule,
		router:   router,
		notifier: notifier,
		logger:   log.Module("watchlist"),
		last:     make(map[string]*contracts.RouteResult),
	}
}

// Name returns the job name
func (j *WatchlistJob) Name() string {
	return "watchlist"
}

// Schedule returns the cron schedule
func (j *WatchlistJob) Schedule() string {
	return j.schedule
}

// Last returns the most recent result for a thesis
func (j *WatchlistJob) Last(thesisID string) *contracts.RouteResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last[thesisID]
}

// Run re-reads the watchlist and routes each thesis in order.
// It fails only when the file is unreadable or every thesis failed.
func (j *WatchlistJob) Run(ctx context.Context) error {
	wl, err := LoadWatchlist(j.path)
	if err != nil {
		return err
	}
	if len(wl.Theses) == 0 {
		j.logger.Debug("Watchlist is empty")
		return nil
	}

	var failed, changed int
	for _, entry := range wl.Theses {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req := entry.Request()
		result, err := j.router.Route(ctx, req)
		if err != nil {
			failed++
			j.logger.WithError(err).WithField("thesis_id", req.Thesis.ID).Warn("Watchlist routing failed")
			continue
		}

		j.mu.Lock()
		prev, seen := j.last[req.Thesis.ID]
		j.last[req.Thesis.ID] = result
		j.mu.Unlock()

		change := notify.Change{Thesis: req.Thesis, Previous: prev, Current: result}
		if !seen || !change.Changed() {
			continue
		}
		changed++

		if err := j.notifier.NotifyChange(ctx, change); err != nil {
			j.logger.WithError(err).WithField("thesis_id", req.Thesis.ID).Warn("Winner change notification failed")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"theses":  len(wl.Theses),
		"failed":  failed,
		"changed": changed,
	}).Info("Watchlist pass completed")

	if failed == len(wl.Theses) {
		return fmt.Errorf("all %d watched theses failed to route", failed)
	}
	return nil
}
