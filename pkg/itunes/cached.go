package itunes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/cache"
)

// Searcher is what handlers need from a client.
type Searcher interface {
	Search(ctx context.Context, p SearchParams) ([]Result, error)
	LookupEpisodes(ctx context.Context, collectionID int64, limit int) ([]Result, error)
}

var (
	_ Searcher = (*Client)(nil)
	_ Searcher = (*CachedClient)(nil)
)

// CachedClient serves repeated searches and lookups from a cache. Identical
// concurrent requests share one upstream call.
type CachedClient struct {
	next   Searcher
	loader *cache.Loader[[]Result]
	ttl    time.Duration
}

// NewCached wraps next. A zero ttl means one hour.
func NewCached(next Searcher, c cache.Cache[[]Result], ttl time.Duration, logger *slog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedClient{
		next:   next,
		loader: cache.NewLoader("itunes", c, logger),
		ttl:    ttl,
	}
}

func (c *CachedClient) Search(ctx context.Context, p SearchParams) ([]Result, error) {
	term := strings.ToLower(strings.TrimSpace(p.Term))
	if term == "" {
		return nil, ErrEmptyTerm
	}
	key := fmt.Sprintf("search:%s:%s:%s:%d", p.Entity, strings.ToUpper(p.Country), term, ClampLimit(p.Limit))
	return c.loader.Get(ctx, key, func(ctx context.Context) ([]Result, time.Duration, error) {
		res, err := c.next.Search(ctx, p)
		return res, c.ttl, err
	})
}

func (c *CachedClient) LookupEpisodes(ctx context.Context, collectionID int64, limit int) ([]Result, error) {
	if collectionID <= 0 {
		return nil, ErrInvalidID
	}
	key := fmt.Sprintf("episodes:%d:%d", collectionID, ClampLimit(limit))
	return c.loader.Get(ctx, key, func(ctx context.Context) ([]Result, time.Duration, error) {
		res, err := c.next.LookupEpisodes(ctx, collectionID, limit)
		return res, c.ttl, err
	})
}
