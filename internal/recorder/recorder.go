package recorder

import "time"

// ForecastRun is one completed (or failed) forecast.
type ForecastRun struct {
	Ticker     string
	Model      string
	Horizon    int
	LastClose  float64
	FinalPrice float64 // last predicted price, 0 when the run failed
	Summary    string
	Source     string // "dashboard", "digest" or "telegram"
	Err        string
	Duration   time.Duration
}

// PanelFailure is a dashboard panel that could not be built.
type PanelFailure struct {
	Ticker string
	Tab    string
	Err    string
}

// Recorder persists an audit trail of forecasts and panel failures.
type Recorder interface {
	RecordForecast(run *ForecastRun) error
	RecordPanelFailure(f *PanelFailure) error
	Close() error
}
