package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerScope/internal/model"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSendWithRetry(t *testing.T) {
	retryUnit = time.Millisecond
	t.Cleanup(func() { retryUnit = time.Second })

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-100)
	err := tn.SendWithRetry(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "retries exhausted")
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /quote AAPL "}}]}`))
				return
			}
			<-r.Context().Done()
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			cancel()
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL

	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string { return "echo " + cmd })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, "echo /quote AAPL", sent.Load())
}

func forecastResult(m model.ForecastModel) *model.ForecastResult {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	res := &model.ForecastResult{
		Model:   m,
		Points:  []model.ForecastPoint{{Date: d, Price: 101}, {Date: d.AddDate(0, 0, 1), Price: 110}},
		Band80:  []model.BandPoint{{Date: d, Lower: 99, Upper: 103}, {Date: d.AddDate(0, 0, 1), Lower: 105, Upper: 115}},
		Band95:  []model.BandPoint{},
		Summary: "ARIMA(0,1,0) <drift>",
	}
	return res
}

func TestFormatForecast(t *testing.T) {
	msg := FormatForecast("AAPL", 100, forecastResult(model.ModelARIMA))
	assert.Contains(t, msg, "ARIMA, next 2 days")
	assert.Contains(t, msg, "2024-06-04: 110.00 (+10.0%)")
	assert.Contains(t, msg, "80% interval: 105.00 - 115.00")
	assert.NotContains(t, msg, "95%")
	assert.Contains(t, msg, "&lt;drift&gt;")
}

func TestFormatQuote(t *testing.T) {
	p := &model.CompanyProfile{
		Symbol:        "MSFT",
		PreviousClose: model.Number(410.123),
		DayLow:        model.Number(405),
		Volume:        model.Number(21000000),
	}
	msg := FormatQuote(p)
	assert.Contains(t, msg, "Previous Close: 410.12")
	assert.Contains(t, msg, "Day's Range: 405.00 - N/A")
	assert.Contains(t, msg, "Volume: 21,000,000")
	assert.NotContains(t, msg, "Market Cap")
}

func TestFormatNewsAndDigest(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	msg := FormatNews("AAPL", []model.NewsItem{{Title: "A & B", Publisher: "Reuters", Link: "https://x", PublishedAt: now.Add(-2 * time.Hour)}}, now)
	assert.Contains(t, msg, "A &amp; B")
	assert.Contains(t, msg, "2 hours ago")
	assert.Contains(t, FormatNews("AAPL", nil, now), "No recent news")

	digest := FormatDigest(now, model.ModelARIMA, []DigestEntry{
		{Ticker: "AAPL", LastClose: 100, Result: forecastResult(model.ModelARIMA)},
		{Ticker: "MSFT", Err: "forecast unavailable for this selection"},
	})
	assert.Contains(t, digest, "AAPL: 100.00 → 110.00 (+10.0%) in 2d")
	assert.Contains(t, digest, "MSFT: ❌ forecast unavailable")
}
