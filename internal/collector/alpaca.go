package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"TickerScope/internal/model"
)

const alpacaNewsLimit = 10

// alpacaData is the part of *marketdata.Client the fetcher uses.
type alpacaData interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
}

// AlpacaFetcher implements Fetcher using the Alpaca market data API (IEX feed).
// Alpaca has no fundamentals, so profiles only carry price and volume fields.
type AlpacaFetcher struct {
	client alpacaData
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	return &AlpacaFetcher{client: marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// The marketdata client does not take a context; ctx is only checked up front.
func (f *AlpacaFetcher) FetchHistory(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	end := time.Now().UTC()
	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		Start:     end.Add(-lookback),
		End:       end,
		TimeFrame: marketdata.OneDay,
		Feed:      marketdata.IEX,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, ErrNoData)
	}

	out := make([]model.OHLCV, len(bars))
	for i, b := range bars {
		out[i] = model.OHLCV{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return out, nil
}

func (f *AlpacaFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := f.client.GetSnapshot(symbol, marketdata.GetSnapshotRequest{Feed: marketdata.IEX})
	if err != nil {
		return nil, fmt.Errorf("alpaca snapshot %s: %w", symbol, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("alpaca snapshot %s: %w", symbol, ErrNoData)
	}

	info := map[string]any{}
	if b := snap.PrevDailyBar; b != nil {
		info["regularMarketPreviousClose"] = b.Close
	}
	if b := snap.DailyBar; b != nil {
		info["regularMarketOpen"] = b.Open
		info["regularMarketDayLow"] = b.Low
		info["regularMarketDayHigh"] = b.High
		info["regularMarketVolume"] = float64(b.Volume)
	}
	return BuildProfile(symbol, info), nil
}

func (f *AlpacaFetcher) FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	news, err := f.client.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{symbol},
		TotalLimit: alpacaNewsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca news %s: %w", symbol, err)
	}
	items := make([]model.NewsItem, len(news))
	for i, n := range news {
		items[i] = model.NewsItem{
			Title:       n.Headline,
			Publisher:   n.Author,
			Link:        n.URL,
			PublishedAt: n.CreatedAt.UTC(),
		}
	}
	return items, nil
}
