package commands

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/thesisrouter/internal/audit"
	"github.com/wonny/thesisrouter/internal/brain"
	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/external/angel"
	"github.com/wonny/thesisrouter/internal/external/hyperliquid"
	"github.com/wonny/thesisrouter/internal/external/kalshi"
	"github.com/wonny/thesisrouter/internal/external/lookup"
	"github.com/wonny/thesisrouter/internal/external/polymarket"
	"github.com/wonny/thesisrouter/internal/external/yahoo"
	"github.com/wonny/thesisrouter/internal/judge"
	"github.com/wonny/thesisrouter/internal/payoff"
	"github.com/wonny/thesisrouter/internal/queue"
	"github.com/wonny/thesisrouter/internal/selection"
	"github.com/wonny/thesisrouter/internal/strategyconfig"
	"github.com/wonny/thesisrouter/pkg/config"
	"github.com/wonny/thesisrouter/pkg/database"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
	"github.com/wonny/thesisrouter/pkg/redis"
)

// app holds every wired component for one CLI invocation
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	strategy   *strategyconfig.Config
	configHash string

	redis       *redis.Client
	searchCache *redis.Cache
	lookup      *lookup.Store
	db          *database.DB
	auditRepo   *audit.Repository
	publisher   *queue.Publisher

	polymarket *polymarket.Client
	router     *brain.Router

	closers []func()
}

// appOptions selects the outer collaborators a command needs
type appOptions struct {
	audit bool // Postgres run log (DATABASE_URL)
	kafka bool // route events (KAFKA_BROKERS)
}

// newApp loads config and wires the routing core.
// ⭐ SSOT: 컴포넌트 조립은 이 함수에서만
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 3. Scoring policy
	strategy, _, err := strategyconfig.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy %q: %w", cfg.StrategyFile, err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy config warning")
	}
	a.strategy = strategy
	if a.configHash, err = strategyconfig.Hash(strategy); err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	// 4. Redis (optional)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process cache")
		rc = redis.Disabled()
	}
	a.redis = rc
	a.closers = append(a.closers, func() { _ = rc.Close() })
	a.searchCache = redis.NewCache(rc, "thesisrouter")

	// 5. Handle -> id store
	store, err := lookup.Open(ctx, cfg.LookupDBPath, log)
	if err != nil {
		log.WithError(err).Warn("Lookup store unavailable, using memory only")
		store = lookup.NewMemory(log)
	}
	a.lookup = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	// 6. Quote adapters
	a.polymarket = polymarket.NewClient(a.venueHTTP(polymarket.Platform, cfg.Polymarket), a.searchCache, cfg.Polymarket.BaseURL, log)
	registry := brain.NewRegistry(
		kalshi.NewClient(a.venueHTTP(kalshi.Platform, cfg.Kalshi), cfg.Kalshi.BaseURL, log),
		a.polymarket,
		hyperliquid.NewClient(a.venueHTTP(hyperliquid.Platform, cfg.Hyperliquid), cfg.Hyperliquid.BaseURL, log),
		yahoo.NewClient(a.venueHTTP(yahoo.Platform, cfg.Yahoo), cfg.Yahoo.BaseURL, log),
		angel.NewClient(a.venueHTTP(angel.Platform, cfg.Angel), store, cfg.Angel.BaseURL, log),
	)

	// 7. Return profile calculator
	calcOpts := payoff.Options{
		ReferenceNotional: cfg.Route.ReferenceNotional,
		HoldingDays:       cfg.Route.HoldingDays,
	}
	if cfg.StrategyFile != "" {
		// 전략 파일이 있으면 정규화 파라미터는 파일이 우선
		calcOpts.ReferenceNotional = strategy.Normalization.ReferenceNotionalUSD
		calcOpts.HoldingDays = strategy.Normalization.HoldingDays
	}
	calculator := payoff.NewCalculator(calcOpts)

	// 8. Judge
	var j contracts.Judge = judge.NewRules(strategy.Judge.DefaultThesisBeta)
	if strategy.Judge.UseLLM && cfg.OpenAI.APIKey != "" {
		llm, err := judge.NewLLM(judge.LLMConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		}, j, log)
		if err != nil {
			log.WithError(err).Warn("LLM judge disabled")
		} else {
			j = llm
		}
	}

	// 9. Selection engine + router
	engine := selection.NewEngine(strategy.Policy(), log)
	a.router = brain.NewRouter(registry, calculator, j, engine, brain.Options{
		Timeout:     cfg.Route.Timeout,
		Concurrency: cfg.Route.Concurrency,
	}, log)

	if strategy.Rediscovery.Enabled {
		a.router.WithRediscoverer(brain.NewSearchRediscoverer(strategy.Rediscovery.SearchLimit, log, a.polymarket))
	}

	// 10. Outer collaborators
	if opts.audit {
		if err := a.openAudit(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.kafka && len(cfg.Kafka.Brokers) > 0 {
		pub, err := queue.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		a.publisher = pub
		a.closers = append(a.closers, func() { _ = pub.Close() })
		a.router.WithSinks(pub)
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": strategy.Meta.StrategyID,
		"config_hash": a.configHash[:12],
		"platforms":   registry.Platforms(),
		"redis":       rc.Enabled(),
		"audit":       a.auditRepo != nil,
		"kafka":       a.publisher != nil,
	}).Info("Router initialized")

	return a, nil
}

// venueHTTP builds the throttled outbound client for one venue
func (a *app) venueHTTP(venue string, vc config.VenueConfig) *httputil.Client {
	c := httputil.New(a.cfg, a.log).WithRateLimit(vc.RateLimit)
	if a.redis.Enabled() && vc.RateLimit > 0 {
		limiter := redis.NewRateLimiter(a.redis, "thesisrouter")
		c = c.WithRateLimiter(limiter, redis.VenueRateLimit(venue, int(math.Ceil(vc.RateLimit))))
	}
	return c
}

// openAudit connects Postgres and registers the run log as a sink
func (a *app) openAudit(ctx context.Context) error {
	if !a.cfg.Database.Enabled() {
		a.log.Debug("DATABASE_URL not set, audit log disabled")
		return nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx, audit.Schema...); err != nil {
		db.Close()
		return fmt.Errorf("migrate audit schema: %w", err)
	}

	a.db = db
	a.closers = append(a.closers, db.Close)
	a.auditRepo = audit.NewRepository(db.Pool).WithConfigHash(a.configHash)
	a.router.WithSinks(a.auditRepo)
	a.log.Info("Connected to audit database")
	return nil
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
