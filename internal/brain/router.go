package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/selection"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Options configures the fan-out
type Options struct {
	Timeout     time.Duration // hard wall-clock limit per request
	Concurrency int           // adapter calls in flight
}

const (
	defaultTimeout     = 20 * time.Second
	defaultConcurrency = 8
)

// Router fans a thesis out to every candidate venue, normalizes the
// quotes, and hands the survivors to the scoring engine
// ⭐ SSOT: 테제 라우팅 조율은 여기서만
type Router struct {
	registry     *Registry
	calculator   contracts.ProfileCalculator
	judge        contracts.Judge
	engine       *selection.Engine
	rediscoverer contracts.Rediscoverer
	sinks        []contracts.ResultSink
	opts         Options
	logger       *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewRouter creates a router
func NewRouter(
	registry *Registry,
	calculator contracts.ProfileCalculator,
	judge contracts.Judge,
	engine *selection.Engine,
	opts Options,
	log *logger.Logger,
) *Router {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Router{
		registry:   registry,
		calculator: calculator,
		judge:      judge,
		engine:     engine,
		opts:       opts,
		logger:     log.Module("router"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// WithRediscoverer enables the single weak-connection retry
func (r *Router) WithRediscoverer(rd contracts.Rediscoverer) *Router {
	r.rediscoverer = rd
	return r
}

// WithSinks adds result consumers; they run after scoring and never affect it
func (r *Router) WithSinks(sinks ...contracts.ResultSink) *Router {
	r.sinks = append(r.sinks, sinks...)
	return r
}

// Registry exposes the adapter registry
func (r *Router) Registry() *Registry {
	return r.registry
}

// Platforms lists the venues with a registered adapter
func (r *Router) Platforms() []string {
	return r.registry.Platforms()
}

// Route runs one full routing pass. Only a malformed request is an error;
// a nil winner is a normal outcome and carries a reason.
func (r *Router) Route(ctx context.Context, req contracts.RouteRequest) (*contracts.RouteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := r.now()
	result := &contracts.RouteResult{
		RunID:     r.newID(),
		ThesisID:  req.Thesis.ID,
		StartedAt: started,
	}
	log := r.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"thesis_id": req.Thesis.ID,
	})

	routeCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	seen := make(map[string]bool, len(req.Candidates))
	candidates, dropped := r.gather(routeCtx, req.Thesis, dedupe(req.Candidates, seen, &result.Dropped))
	result.Dropped = append(result.Dropped, dropped...)

	sel, err := r.engine.Select(candidates)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	if sel.WeakConnection && r.rediscoverer != nil {
		sel = r.rediscover(routeCtx, req, sel, candidates, seen, result, log)
	}

	result.Winner = sel.Winner
	result.Reason = sel.Reason
	result.Ranked = sel.Ranked
	result.Override = sel.Override
	result.WeakConnection = sel.WeakConnection
	result.Duration = r.now().Sub(started)

	fields := map[string]interface{}{
		"candidates":  len(candidates),
		"dropped":     len(result.Dropped),
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Winner != nil {
		fields["winner"] = result.Winner.Name
		fields["score"] = result.Winner.Score
		fields["weak_connection"] = result.WeakConnection
	} else {
		fields["reason"] = result.Reason
	}
	log.WithFields(fields).Info("Route completed")

	r.publish(ctx, req.Thesis, result)
	return result, nil
}

// rediscover asks discovery once for fresh candidates and keeps the better winner:
// one passing the connection floor, otherwise the higher score
func (r *Router) rediscover(
	ctx context.Context,
	req contracts.RouteRequest,
	first *selection.Selection,
	candidates []contracts.Candidate,
	seen map[string]bool,
	result *contracts.RouteResult,
	log *logger.Logger,
) *selection.Selection {
	log.WithField("winner", first.Winner.Name).Info("Winner below connection floor, rediscovering")

	fresh, err := r.rediscoverer.Rediscover(ctx, req.Thesis, req.Candidates)
	if err != nil {
		log.WithError(err).Warn("Rediscovery failed, keeping first winner")
		return first
	}

	var extra []contracts.CandidateInstrument
	for _, inst := range fresh {
		if err := inst.Validate(); err != nil {
			log.WithError(err).Warn("Rediscovered candidate rejected")
			continue
		}
		if !seen[inst.Key()] {
			seen[inst.Key()] = true
			extra = append(extra, inst)
		}
	}
	if len(extra) == 0 {
		log.Info("Rediscovery returned no new candidates")
		return first
	}

	more, dropped := r.gather(ctx, req.Thesis, extra)
	result.Dropped = append(result.Dropped, dropped...)

	second, err := r.engine.Select(append(append([]contracts.Candidate(nil), candidates...), more...))
	if err != nil || second.Winner == nil {
		return first
	}

	policy := r.engine.Policy()
	if better(policy, second.Winner, first.Winner) {
		result.Rediscovered = true
		log.WithFields(map[string]interface{}{
			"previous": first.Winner.Name,
			"winner":   second.Winner.Name,
		}).Info("Rediscovery replaced winner")
		return second
	}
	return first
}

// better reports whether a should replace b
func better(policy selection.Policy, a, b *contracts.ScoredCandidate) bool {
	aOK, bOK := policy.PassesConnectionFloor(a), policy.PassesConnectionFloor(b)
	if aOK != bOK {
		return aOK
	}
	return a.Score > b.Score
}

type settled struct {
	candidate contracts.Candidate
	err       error
	done      bool
}

// gather evaluates every instrument concurrently and keeps whatever settled
// before the deadline. Failures never abort siblings.
func (r *Router) gather(ctx context.Context, thesis contracts.Thesis, insts []contracts.CandidateInstrument) ([]contracts.Candidate, []contracts.DroppedCandidate) {
	if len(insts) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results = make([]settled, len(insts))
		g       errgroup.Group
	)
	g.SetLimit(r.opts.Concurrency)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, inst := range insts {
			g.Go(func() error {
				cand, err := r.evaluate(ctx, thesis, inst)
				mu.Lock()
				results[i] = settled{candidate: cand, err: err, done: true}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		// 미완료 호출은 버림
	}

	mu.Lock()
	snapshot := append([]settled(nil), results...)
	mu.Unlock()

	candidates := make([]contracts.Candidate, 0, len(insts))
	var dropped []contracts.DroppedCandidate
	for i, s := range snapshot {
		if !s.done {
			s.err = fmt.Errorf("%w: abandoned at deadline", contracts.ErrUnavailable)
		}
		if s.err != nil {
			dropped = append(dropped, r.drop(insts[i], s.err))
			continue
		}
		candidates = append(candidates, s.candidate)
	}
	return candidates, dropped
}

// evaluate is quote -> profile -> judgment for one instrument
func (r *Router) evaluate(ctx context.Context, thesis contracts.Thesis, inst contracts.CandidateInstrument) (contracts.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Candidate{}, fmt.Errorf("%w: %v", contracts.ErrUnavailable, err)
	}

	_, profile, err := r.Profile(ctx, inst)
	if err != nil {
		return contracts.Candidate{}, err
	}

	judgment, err := r.judge.Assess(ctx, thesis, inst, profile)
	if err != nil {
		return contracts.Candidate{}, fmt.Errorf("judge %s: %w", inst.Name(), err)
	}

	return selection.NewCandidate(thesis, inst, profile, judgment, r.engine.Policy()), nil
}

// Profile quotes one instrument and normalizes it
func (r *Router) Profile(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, *contracts.ReturnProfile, error) {
	adapter, err := r.registry.Lookup(inst.Platform, inst.Kind)
	if err != nil {
		return nil, nil, err
	}

	quote, err := adapter.Quote(ctx, inst)
	if err != nil {
		return nil, nil, err
	}

	profile, err := r.calculator.Profile(quote, inst)
	if err != nil {
		return quote, nil, err
	}
	return quote, profile, nil
}

func (r *Router) drop(inst contracts.CandidateInstrument, err error) contracts.DroppedCandidate {
	label := contracts.Classify(err)
	r.logger.WithError(err).WithFields(map[string]interface{}{
		"platform": inst.Platform,
		"ticker":   inst.Ticker,
		"reason":   label,
	}).Warn("Candidate dropped")

	return contracts.DroppedCandidate{Instrument: inst, Reason: label, Error: err.Error()}
}

// dedupe keeps the first occurrence of each platform/ticker/kind
func dedupe(insts []contracts.CandidateInstrument, seen map[string]bool, dropped *[]contracts.DroppedCandidate) []contracts.CandidateInstrument {
	out := make([]contracts.CandidateInstrument, 0, len(insts))
	for _, inst := range insts {
		if seen[inst.Key()] {
			*dropped = append(*dropped, contracts.DroppedCandidate{
				Instrument: inst,
				Reason:     ReasonDuplicate,
				Error:      "duplicate of an earlier candidate",
			})
			continue
		}
		seen[inst.Key()] = true
		out = append(out, inst)
	}
	return out
}

// ReasonDuplicate labels a candidate listed twice in one request
const ReasonDuplicate = "duplicate"

// publish hands the result to every sink; sink failures are logged only
func (r *Router) publish(ctx context.Context, thesis contracts.Thesis, result *contracts.RouteResult) {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, thesis, result); err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"run_id": result.RunID,
				"sink":   fmt.Sprintf("%T", sink),
			}).Warn("Result sink failed")
		}
	}
}
