package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"TickerScope/internal/model"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com"
	yahooSummaryURL = "https://query2.finance.yahoo.com"

	yahooNewsCount = 10
)

// quoteSummary modules flattened into the profile info map.
var yahooModules = []string{"price", "summaryDetail", "defaultKeyStatistics", "financialData", "assetProfile"}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client     *http.Client
	ChartURL   string
	SummaryURL string
	SymbolMap  map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:     newHTTPClient(proxyURL),
		ChartURL:   yahooChartURL,
		SummaryURL: yahooSummaryURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *yahooError                 `json:"error"`
	} `json:"quoteSummary"`
}

type yahooSearch struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

// getJSON issues a GET and decodes a 200 response into out.
func (f *YahooFetcher) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// chartRange picks the smallest Yahoo range covering the lookback.
func chartRange(lookback time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case lookback <= 0:
		return "5y"
	case lookback <= 31*day:
		return "1mo"
	case lookback <= 92*day:
		return "3mo"
	case lookback <= 183*day:
		return "6mo"
	case lookback <= 366*day:
		return "1y"
	case lookback <= 2*366*day:
		return "2y"
	case lookback <= 5*366*day:
		return "5y"
	default:
		return "max"
	}
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.ChartURL, url.PathEscape(f.yahooSymbol(symbol)), chartRange(lookback))

	var chart yahooChart
	if err := f.getJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		// A bar without a close is unusable (holidays, partial rows).
		if at(quote.Close, i) == nil {
			continue
		}
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(at(quote.Volume, i)),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return trimLookback(bars, lookback), nil
}

// trimLookback drops bars older than lookback before the most recent one.
func trimLookback(bars []model.OHLCV, lookback time.Duration) []model.OHLCV {
	if lookback <= 0 || len(bars) == 0 {
		return bars
	}
	cutoff := bars[len(bars)-1].Time.Add(-lookback)
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(cutoff) })
	return bars[i:]
}

func (f *YahooFetcher) FetchProfile(ctx context.Context, symbol string) (*model.CompanyProfile, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.SummaryURL, url.PathEscape(f.yahooSymbol(symbol)), strings.Join(yahooModules, ","))

	var summary yahooQuoteSummary
	if err := f.getJSON(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo profile %s: %w", symbol, ErrNoData)
	}
	return BuildProfile(symbol, flattenModules(summary.QuoteSummary.Result[0])), nil
}

// flattenModules merges quoteSummary modules into one info map. Formatted
// values {"raw": 1.2, "fmt": "1.20"} collapse to their raw number; empty
// objects are dropped. Earlier modules win on key collisions.
func flattenModules(modules map[string]map[string]any) map[string]any {
	info := make(map[string]any)
	for _, name := range yahooModules {
		for k, v := range modules[name] {
			if _, seen := info[k]; seen {
				continue
			}
			if obj, ok := v.(map[string]any); ok {
				raw, ok := obj["raw"]
				if !ok {
					continue
				}
				v = raw
			}
			info[k] = v
		}
	}
	return info
}

func (f *YahooFetcher) FetchNews(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=0&newsCount=%d",
		f.SummaryURL, url.QueryEscape(f.yahooSymbol(symbol)), yahooNewsCount)

	var search yahooSearch
	if err := f.getJSON(ctx, u, &search); err != nil {
		return nil, err
	}
	items := make([]model.NewsItem, 0, len(search.News))
	for _, n := range search.News {
		items = append(items, model.NewsItem{
			Title:       n.Title,
			Publisher:   n.Publisher,
			Link:        n.Link,
			PublishedAt: time.Unix(n.ProviderPublishTime, 0).UTC(),
		})
	}
	return items, nil
}
