package lookup

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/pkg/logger"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lookup", "lookup.db")
	s, err := Open(context.Background(), path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_PutGetPersists(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	require.NoError(t, s.Put(ctx, "angel", "Acme-Robotics", "1234"))

	id, ok, err := s.Get(ctx, "angel", " acme-robotics ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", id)

	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	id, ok, err = reopened.Get(ctx, "angel", "acme-robotics")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", id)
}

func TestStore_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	require.NoError(t, s.Put(ctx, "angel", "acme", "1"))
	require.NoError(t, s.Put(ctx, "angel", "acme", "2"))

	id, _, err := s.Get(ctx, "angel", "acme")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	assert.Error(t, s.Put(ctx, "angel", "empty", ""))
}

func TestStore_VenuesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(logger.NewNop())

	require.NoError(t, s.Put(ctx, "angel", "acme", "1"))
	_, ok, err := s.Get(ctx, "wefunder", "acme")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Path())
}

func TestStore_ResolveOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	var calls int32
	resolve := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "42", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Resolve(ctx, "angel", "acme", resolve)
			assert.NoError(t, err)
			assert.Equal(t, "42", id)
		}()
	}
	wg.Wait()

	// concurrent first lookups may race, but every later call is a cache hit
	before := atomic.LoadInt32(&calls)
	_, err := s.Resolve(ctx, "angel", "acme", resolve)
	require.NoError(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, before, int32(1))
}

func TestStore_ResolveErrorNotCached(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(logger.NewNop())
	boom := errors.New("boom")

	_, err := s.Resolve(ctx, "angel", "acme", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	_, ok, _ := s.Get(ctx, "angel", "acme")
	assert.False(t, ok)
}
