package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerScope/internal/collector"
	"TickerScope/internal/dashboard"
	"TickerScope/internal/model"
	"TickerScope/internal/recorder"
)

type captureSender struct{ msgs []string }

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.msgs = append(c.msgs, text)
	return nil
}

func bars(n int) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, n)
	for i := range out {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: 50, High: 50, Low: 50, Close: 50}
	}
	return out
}

func newTestScheduler(f collector.Fetcher) (*Scheduler, *captureSender) {
	col := collector.NewCollector(f)
	svc := dashboard.NewService(col, recorder.NewNoopRecorder(), []string{"AAPL", "MSFT"})
	sender := &captureSender{}
	return NewScheduler(context.Background(), col, svc, sender, model.ModelExponentialSmoothing, 3), sender
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{Price: 10})
	require.NoError(t, s.RegisterAll("0 */15 * * * *", "0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 2)

	s, _ = newTestScheduler(&collector.MockFetcher{Price: 10})
	assert.Error(t, s.RegisterAll("not a cron", "0 30 22 * * 1-5"))
}

func TestDigestTaskSends(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Bars: bars(10)})
	s.digestTask()

	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0], "Exponential Smoothing")
	assert.Contains(t, sender.msgs[0], "AAPL: 50.00 → 50.00 (+0.0%) in 3d")
	assert.Contains(t, sender.msgs[0], "MSFT:")
}

func TestDigest_UpstreamFailure(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{Err: errors.New("down")})
	msg := s.Digest()
	assert.Contains(t, msg, "AAPL: ❌ data unavailable for AAPL")
}

func TestWarmNowTolerantOfFailures(t *testing.T) {
	s, sender := newTestScheduler(&collector.MockFetcher{Err: errors.New("down")})
	s.WarmNow()
	assert.Empty(t, sender.msgs)
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{Price: 100, Bars: bars(30)})
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/forecast TICKER")
	assert.Contains(t, s.HandleCommand(ctx, ""), "Available commands")
	assert.Contains(t, s.HandleCommand(ctx, "/quote"), "Usage")
	assert.Contains(t, s.HandleCommand(ctx, "/quote TSLA"), "Unknown ticker TSLA")
	assert.Contains(t, s.HandleCommand(ctx, "/quote aapl"), "<b>AAPL</b>")
	assert.Contains(t, s.HandleCommand(ctx, "/news@tickerscope_bot MSFT"), "MSFT mock headline")

	reply := s.HandleCommand(ctx, "/forecast AAPL 5 ets")
	assert.Contains(t, reply, "Exponential Smoothing, next 5 days")
	assert.Contains(t, reply, "95% interval")

	reply = s.HandleCommand(ctx, "/forecast AAPL arima 2")
	assert.Contains(t, reply, "ARIMA, next 2 days")
	assert.NotContains(t, reply, "95% interval")

	assert.Contains(t, s.HandleCommand(ctx, "/forecast AAPL 45"), "between 1 and 30")
	assert.Contains(t, s.HandleCommand(ctx, "/forecast AAPL prophet"), "arima or ets")
}

func TestHandleCommand_ForecastUnavailable(t *testing.T) {
	s, _ := newTestScheduler(&collector.MockFetcher{Bars: bars(1)})
	assert.Equal(t, dashboard.MsgForecastUnavailable, s.HandleCommand(context.Background(), "/forecast AAPL ets"))
}
