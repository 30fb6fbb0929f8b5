package collector

import (
	"context"
	"errors"
	"time"

	"TickerScope/internal/model"
)

// DefaultLookback is how much daily history the dashboard works with.
const DefaultLookback = 5 * 365 * 24 * time.Hour

// ErrNoData is returned when a provider answers but has nothing for the symbol.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error)
	FetchHistory(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error)
	FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error)
	Name() string
}
