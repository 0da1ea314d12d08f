// internal/feed/cache.go
package feed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

const DefaultCacheTTL = 5 * time.Second

// CachedSource lets many monitors share one upstream poll. Concurrent callers
// are coalesced into a single fetch, and a result younger than ttl is served
// from memory. Errors are never cached.
type CachedSource struct {
	src   Source
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time

	mu        sync.Mutex
	tokens    []domain.TokenSnapshot
	fetchedAt time.Time
}

// NewCachedSource wraps src. A non-positive ttl disables caching but keeps
// coalescing.
func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src: src,
		ttl: ttl,
		now: time.Now,
	}
}

// Fetch returns a recent snapshot list.
func (c *CachedSource) Fetch(ctx context.Context) ([]domain.TokenSnapshot, error) {
	if tokens, ok := c.fresh(); ok {
		return tokens, nil
	}

	// One caller's cancellation must not fail the shared request.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("latest", func() (interface{}, error) {
		tokens, err := c.src.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tokens = tokens
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return tokens, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyTokens(res.Val.([]domain.TokenSnapshot)), nil
	}
}

func (c *CachedSource) fresh() ([]domain.TokenSnapshot, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return copyTokens(c.tokens), true
}

func copyTokens(in []domain.TokenSnapshot) []domain.TokenSnapshot {
	out := make([]domain.TokenSnapshot, len(in))
	copy(out, in)
	return out
}
