package brain

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Registry maps platform names to quote adapters
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]contracts.QuoteAdapter
}

// NewRegistry creates a registry pre-loaded with adapters
func NewRegistry(adapters ...contracts.QuoteAdapter) *Registry {
	r := &Registry{adapters: make(map[string]contracts.QuoteAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for a.Platform()
func (r *Registry) Register(a contracts.QuoteAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[normalizePlatform(a.Platform())] = a
}

// Lookup returns the adapter serving platform and kind
func (r *Registry) Lookup(platform string, kind contracts.InstrumentKind) (contracts.QuoteAdapter, error) {
	r.mu.RLock()
	a, ok := r.adapters[normalizePlatform(platform)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNoAdapter, platform)
	}
	if !a.Supports(kind) {
		return nil, fmt.Errorf("%w: %s does not list %s", contracts.ErrNoAdapter, platform, kind)
	}
	return a, nil
}

// Platforms lists registered platform names, sorted
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizePlatform(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
