package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Schema holds the DDL for the routing audit log
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.routing_runs (
		run_id          TEXT PRIMARY KEY,
		thesis_id       TEXT NOT NULL,
		claim           TEXT NOT NULL,
		winner          TEXT,
		winner_platform TEXT,
		winner_class    TEXT,
		winner_score    DOUBLE PRECISION,
		reason          TEXT,
		override        BOOLEAN NOT NULL DEFAULT FALSE,
		weak_connection BOOLEAN NOT NULL DEFAULT FALSE,
		rediscovered    BOOLEAN NOT NULL DEFAULT FALSE,
		dropped         INTEGER NOT NULL DEFAULT 0,
		config_hash     TEXT,
		result          JSONB NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		duration_ms     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS routing_runs_thesis_idx ON audit.routing_runs (thesis_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit.route_candidates (
		run_id       TEXT NOT NULL REFERENCES audit.routing_runs (run_id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		rank         INTEGER,
		name         TEXT NOT NULL,
		platform     TEXT NOT NULL,
		class        TEXT NOT NULL,
		thesis_beta  DOUBLE PRECISION NOT NULL,
		convexity    DOUBLE PRECISION NOT NULL,
		time_cost    DOUBLE PRECISION NOT NULL,
		score        DOUBLE PRECISION NOT NULL,
		disqualified BOOLEAN NOT NULL,
		reason       TEXT,
		PRIMARY KEY (run_id, position)
	)`,
}

// ErrRunNotFound is returned when a run id has no audit row
var ErrRunNotFound = errors.New("routing run not found")

// Repository persists routing runs
// ⭐ SSOT: 라우팅 감사 로그 저장/조회는 여기서만
type Repository struct {
	pool       *pgxpool.Pool
	configHash string
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithConfigHash stamps every saved run with the active strategy config hash
func (r *Repository) WithConfigHash(hash string) *Repository {
	r.configHash = hash
	return r
}

// Publish implements contracts.ResultSink
func (r *Repository) Publish(ctx context.Context, thesis contracts.Thesis, result *contracts.RouteResult) error {
	return r.SaveRun(ctx, NewRunRecord(thesis, result, r.configHash))
}

// SaveRun stores one run and its ranked candidates atomically
func (r *Repository) SaveRun(ctx context.Context, rec *RunRecord) error {
	if rec == nil || rec.Result == nil {
		return fmt.Errorf("audit: nil run record")
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal route result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO audit.routing_runs (
			run_id, thesis_id, claim, winner, winner_platform, winner_class, winner_score,
			reason, override, weak_connection, rediscovered, dropped, config_hash,
			result, started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (run_id) DO NOTHING
	`,
		rec.RunID, rec.ThesisID, rec.Claim, nullIfEmpty(rec.Winner), nullIfEmpty(rec.WinnerPlatform),
		nullIfEmpty(string(rec.WinnerClass)), rec.WinnerScore, nullIfEmpty(rec.Reason), rec.Override,
		rec.WeakConnection, rec.Rediscovered, rec.Dropped, nullIfEmpty(rec.ConfigHash),
		resultJSON, rec.StartedAt, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert routing run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, sc := range rec.Result.Ranked {
		var rank any
		if sc.Rank > 0 {
			rank = sc.Rank
		}
		batch.Queue(`
			INSERT INTO audit.route_candidates (
				run_id, position, rank, name, platform, class, thesis_beta,
				convexity, time_cost, score, disqualified, reason
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (run_id, position) DO NOTHING
		`,
			rec.RunID, i+1, rank, sc.Name, sc.Platform, string(sc.Class), sc.ThesisBeta,
			sc.Convexity, sc.TimeCost, sc.Score, sc.Disqualified, nullIfEmpty(string(sc.DisqualifyReason)),
		)
	}

	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert candidate %d: %w", i+1, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close candidate batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun loads a single run with its full result
func (r *Repository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := r.pool.QueryRow(ctx, selectRuns+` WHERE run_id = $1`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routing run: %w", err)
	}
	return rec, nil
}

// ListRuns returns runs started at or after since, newest first.
// An empty thesisID lists every thesis.
func (r *Repository) ListRuns(ctx context.Context, thesisID string, since time.Time, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, selectRuns+`
		WHERE ($1 = '' OR thesis_id = $1) AND started_at >= $2
		ORDER BY started_at DESC
		LIMIT $3
	`, thesisID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query routing runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan routing run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const selectRuns = `
	SELECT run_id, thesis_id, claim, COALESCE(winner, ''), COALESCE(winner_platform, ''),
		COALESCE(winner_class, ''), COALESCE(winner_score, 0), COALESCE(reason, ''),
		override, weak_connection, rediscovered, dropped, COALESCE(config_hash, ''),
		result, started_at, duration_ms
	FROM audit.routing_runs`

func scanRun(row pgx.Row) (*RunRecord, error) {
	var (
		rec        RunRecord
		class      string
		resultJSON []byte
		durationMs int64
	)
	err := row.Scan(
		&rec.RunID, &rec.ThesisID, &rec.Claim, &rec.Winner, &rec.WinnerPlatform,
		&class, &rec.WinnerScore, &rec.Reason,
		&rec.Override, &rec.WeakConnection, &rec.Rediscovered, &rec.Dropped, &rec.ConfigHash,
		&resultJSON, &rec.StartedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}
	rec.WinnerClass = contracts.InstrumentClass(class)
	rec.Duration = time.Duration(durationMs) * time.Millisecond

	var result contracts.RouteResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route result: %w", err)
	}
	rec.Result = &result
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
