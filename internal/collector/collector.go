package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"TickerScope/internal/calculator"
	"TickerScope/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Bars    []model.OHLCV
	Profile *model.CompanyProfile
	News    []model.NewsItem
	Err     error // returned by every call when set
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, _ string, lookback time.Duration) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	days := int(lookback / (24 * time.Hour))
	if days <= 0 || days > 400 {
		days = 400
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, symbol string) (*model.CompanyProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Profile != nil {
		return m.Profile, nil
	}
	return BuildProfile(symbol, map[string]any{
		"longBusinessSummary":        "Mock company used for offline development.",
		"regularMarketPreviousClose": m.Price,
		"regularMarketOpen":          m.Price,
		"regularMarketDayLow":        m.Price * 0.99,
		"regularMarketDayHigh":       m.Price * 1.01,
		"regularMarketVolume":        1000000.0,
		"sector":                     "Technology",
	}), nil
}

func (m *MockFetcher) FetchNews(_ context.Context, symbol string) ([]model.NewsItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.News != nil {
		return m.News, nil
	}
	return []model.NewsItem{{
		Title:       symbol + " mock headline",
		Publisher:   "mock",
		Link:        "https://example.com/" + symbol,
		PublishedAt: time.Now().Add(-time.Hour).UTC(),
	}}, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Lookback time.Duration
}

// NewCollector creates a new Collector over the default five-year window.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Lookback: DefaultLookback}
}

// History returns the daily bars for symbol.
func (c *Collector) History(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	bars, err := c.Fetcher.FetchHistory(ctx, symbol, c.Lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return bars, nil
}

// Chart fetches history and derives the chart indicators.
func (c *Collector) Chart(ctx context.Context, symbol string) ([]model.IndicatorRow, error) {
	bars, err := c.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return calculator.DeriveIndicators(bars), nil
}

// News returns recent headlines for symbol.
func (c *Collector) News(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	items, err := c.Fetcher.FetchNews(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	return items, nil
}

// Profile fetches the company profile. A 52-week range the provider left out
// is filled from price history when that is available.
func (c *Collector) Profile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	p, err := c.Fetcher.FetchProfile(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if p.FiftyTwoWeekLow.Available() && p.FiftyTwoWeekHigh.Available() {
		return p, nil
	}

	bars, err := c.History(ctx, symbol)
	if err != nil {
		logrus.WithError(err).WithField("ticker", symbol).Warn("52-week range fallback skipped")
		return p, nil
	}
	h, l, err := calculator.Calculate52WeekRange(bars)
	if err != nil {
		logrus.WithError(err).WithField("ticker", symbol).Warn("52-week range calculation failed")
		return p, nil
	}

	filled := *p
	if !filled.FiftyTwoWeekLow.Available() {
		filled.FiftyTwoWeekLow = model.Number(l)
	}
	if !filled.FiftyTwoWeekHigh.Available() {
		filled.FiftyTwoWeekHigh = model.Number(h)
	}
	return &filled, nil
}
