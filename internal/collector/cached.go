package collector

import (
	"context"
	"time"

	"TickerScope/internal/cache"
	"TickerScope/internal/model"
)

// CachedFetcher memoizes another Fetcher. Only successful results are cached.
type CachedFetcher struct {
	next  Fetcher
	store cache.Store
}

func NewCachedFetcher(next Fetcher, store cache.Store) *CachedFetcher {
	return &CachedFetcher{next: next, store: store}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	return cache.Memoize(ctx, c.store, cache.Key(c.key("FetchProfile"), symbol), func() (*model.CompanyProfile, error) {
		return c.next.FetchProfile(ctx, symbol)
	})
}

func (c *CachedFetcher) FetchHistory(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	return cache.Memoize(ctx, c.store, cache.Key(c.key("FetchHistory"), symbol, lookback), func() ([]model.OHLCV, error) {
		return c.next.FetchHistory(ctx, symbol, lookback)
	})
}

func (c *CachedFetcher) FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	return cache.Memoize(ctx, c.store, cache.Key(c.key("FetchNews"), symbol), func() ([]model.NewsItem, error) {
		return c.next.FetchNews(ctx, symbol)
	})
}

func (c *CachedFetcher) key(method string) string {
	return c.next.Name() + "." + method
}
