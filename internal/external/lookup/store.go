package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/thesisrouter/pkg/logger"
)

// Store is a persistent handle -> id cache shared by adapters that resolve handles.
// Mappings never change once resolved, so writes are idempotent and nothing is evicted.
// ⭐ SSOT: handle 해석 결과는 여기서만 저장
type Store struct {
	db     *sql.DB
	path   string
	logger *logger.Logger

	mem sync.Map // key(venue, handle) -> id
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS handle_ids (
	venue       TEXT NOT NULL,
	handle      TEXT NOT NULL,
	resolved_id TEXT NOT NULL,
	resolved_at TIMESTAMP NOT NULL,
	PRIMARY KEY (venue, handle)
);`

// Open creates (if needed) and opens the SQLite lookup database
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("lookup db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lookup dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 단일 writer: SQLITE_BUSY 방지
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create lookup schema: %w", err)
	}

	return &Store{db: db, path: path, logger: log.Module("lookup")}, nil
}

// NewMemory returns a store without persistence
func NewMemory(log *logger.Logger) *Store {
	return &Store{logger: log.Module("lookup")}
}

// Path returns the database file backing the store ("" when in-memory)
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(venue, handle string) string {
	return venue + "\x00" + normalize(handle)
}

func normalize(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Get returns the resolved id for a handle
func (s *Store) Get(ctx context.Context, venue, handle string) (string, bool, error) {
	if v, ok := s.mem.Load(key(venue, handle)); ok {
		return v.(string), true, nil
	}
	if s.db == nil {
		return "", false, nil
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT resolved_id FROM handle_ids WHERE venue = ? AND handle = ?`,
		venue, normalize(handle),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s/%s: %w", venue, handle, err)
	}

	s.mem.Store(key(venue, handle), id)
	return id, true, nil
}

// Put records a resolution. The first write wins; later writes are no-ops.
func (s *Store) Put(ctx context.Context, venue, handle, id string) error {
	if id == "" {
		return fmt.Errorf("lookup %s/%s: empty id", venue, handle)
	}
	if _, loaded := s.mem.LoadOrStore(key(venue, handle), id); loaded {
		return nil
	}
	if s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO handle_ids (venue, handle, resolved_id, resolved_at) VALUES (?, ?, ?, ?)`,
		venue, normalize(handle), id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("persist lookup %s/%s: %w", venue, handle, err)
	}
	return nil
}

// Resolve returns the cached id or calls resolve and records its answer.
// A persistence failure is logged; the resolved id is still returned.
func (s *Store) Resolve(ctx context.Context, venue, handle string, resolve func(context.Context) (string, error)) (string, error) {
	id, ok, err := s.Get(ctx, venue, handle)
	if err != nil {
		s.logger.WithError(err).Warn("Lookup read failed, resolving again")
	}
	if ok {
		return id, nil
	}

	id, err = resolve(ctx)
	if err != nil {
		return "", err
	}

	if err := s.Put(ctx, venue, handle, id); err != nil {
		s.logger.WithError(err).WithField("venue", venue).Warn("Lookup write failed")
	}
	return id, nil
}
