package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.RecordForecast(&ForecastRun{
		Ticker:     "AAPL",
		Model:      "arima",
		Horizon:    14,
		LastClose:  190.5,
		FinalPrice: 193.2,
		Summary:    "ARIMA(1,1,0)",
		Source:     "digest",
		Duration:   1500 * time.Millisecond,
	}))
	require.NoError(t, r.RecordForecast(&ForecastRun{Ticker: "MSFT", Model: "ets", Horizon: 5, Err: "forecast unavailable"}))
	require.NoError(t, r.RecordPanelFailure(&PanelFailure{Ticker: "GOOG", Tab: "News", Err: "timeout"}))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM forecast_runs`).Scan(&n))
	assert.Equal(t, 2, n)

	var model string
	var final float64
	var ms int64
	require.NoError(t, r.db.QueryRow(
		`SELECT model, final_price, duration_ms FROM forecast_runs WHERE ticker = ?`, "AAPL",
	).Scan(&model, &final, &ms))
	assert.Equal(t, "arima", model)
	assert.Equal(t, 193.2, final)
	assert.Equal(t, int64(1500), ms)

	var tab string
	require.NoError(t, r.db.QueryRow(`SELECT tab FROM panel_failures WHERE ticker = 'GOOG'`).Scan(&tab))
	assert.Equal(t, "News", tab)
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordPanelFailure(&PanelFailure{Ticker: "AMZN", Tab: "Overview", Err: "x"}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()
	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM panel_failures`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordForecast(&ForecastRun{}))
	assert.NoError(t, r.RecordPanelFailure(&PanelFailure{}))
	assert.NoError(t, r.Close())
}
