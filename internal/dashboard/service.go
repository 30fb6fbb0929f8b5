package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"TickerScope/internal/collector"
	"TickerScope/internal/forecast"
	"TickerScope/internal/model"
	"TickerScope/internal/recorder"
	"TickerScope/internal/session"
)

// MsgForecastUnavailable is shown on the forecast panel when no model could be fitted.
const MsgForecastUnavailable = "forecast unavailable for this selection"

// DataUnavailable is the panel message for an upstream failure.
func DataUnavailable(ticker string) string {
	return "data unavailable for " + ticker
}

// Service builds dashboard panels for the configured tickers.
type Service struct {
	collector *collector.Collector
	recorder  recorder.Recorder
	tickers   []string
	now       func() time.Time
}

func NewService(c *collector.Collector, rec recorder.Recorder, tickers []string) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{collector: c, recorder: rec, tickers: tickers, now: time.Now}
}

// Tickers returns the selectable tickers in display order.
func (s *Service) Tickers() []string { return slices.Clone(s.tickers) }

// HasTicker reports whether ticker is one of the configured tickers.
func (s *Service) HasTicker(ticker string) bool { return slices.Contains(s.tickers, ticker) }

// Render builds the panel for the session's active tab.
func (s *Service) Render(ctx context.Context, st *session.State) *Page {
	page := &Page{Session: st}
	switch st.Tab {
	case session.TabOverview:
		page.Overview = s.Overview(ctx, st.Ticker)
	case session.TabPriceChart:
		page.Chart = s.PriceChart(ctx, st.Ticker)
	case session.TabNews:
		page.News = s.News(ctx, st.Ticker)
	case session.TabForecasting:
		page.Forecast = s.Forecast(ctx, st.Ticker, st.Horizon, st.Model)
	default:
		logrus.WithFields(logrus.Fields{"session": st.ID, "tab": st.Tab}).Error("unknown tab")
	}
	return page
}

func (s *Service) Overview(ctx context.Context, ticker string) *OverviewPanel {
	panel := &OverviewPanel{
		Ticker: ticker,
		Title:  ticker + " Company Information",
		Intro:  "Below is some information about the company:",
	}
	p, err := s.collector.Profile(ctx, ticker)
	if err != nil {
		s.panelFailed(ticker, session.TabOverview, err)
		panel.Error = DataUnavailable(ticker)
		return panel
	}

	panel.Summary = p.SummaryText()
	for _, r := range p.Rows() {
		panel.Rows = append(panel.Rows, Row{Label: r.Label, Value: formatRow(r)})
	}
	return panel
}

func (s *Service) PriceChart(ctx context.Context, ticker string) *ChartPanel {
	panel := &ChartPanel{
		Ticker:   ticker,
		Title:    ticker + " Stock Price Chart",
		XAxis:    "Date",
		YAxis:    "Price (USD)",
		Overlays: chartOverlays,
		Notes:    chartNotes,
	}
	rows, err := s.collector.Chart(ctx, ticker)
	if err != nil {
		s.panelFailed(ticker, session.TabPriceChart, err)
		panel.Error = DataUnavailable(ticker)
		return panel
	}

	panel.Candles = make([]Candle, len(rows))
	for i, r := range rows {
		panel.Candles[i] = Candle{
			Date:       r.Time,
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			MA7:        r.MA7,
			MA14:       r.MA14,
			Resistance: r.Resistance10,
			Support:    r.Support10,
		}
	}
	return panel
}

func (s *Service) News(ctx context.Context, ticker string) *NewsPanel {
	panel := &NewsPanel{Ticker: ticker, Items: []NewsRow{}}
	items, err := s.collector.News(ctx, ticker)
	if err != nil {
		s.panelFailed(ticker, session.TabNews, err)
		panel.Error = DataUnavailable(ticker)
		return panel
	}

	now := s.now()
	for _, n := range items {
		abs, rel := formatNewsTime(n.PublishedAt.Local(), now)
		panel.Items = append(panel.Items, NewsRow{
			Title:     n.Title,
			Publisher: n.Publisher,
			Link:      n.Link,
			Published: abs,
			Relative:  rel,
		})
	}
	return panel
}

func (s *Service) Forecast(ctx context.Context, ticker string, horizon int, m model.ForecastModel) *ForecastPanel {
	panel := &ForecastPanel{
		Ticker:    ticker,
		Model:     m,
		ModelName: m.DisplayName(),
		Horizon:   horizon,
		Title:     fmt.Sprintf("%s Price Forecast for next %d days (%s)", ticker, horizon, m.DisplayName()),
	}

	history, res, err := s.RunForecast(ctx, ticker, horizon, m, "dashboard")
	if err != nil {
		if errors.Is(err, forecast.ErrInvalidHorizon) || errors.Is(err, forecast.ErrUnknownModel) {
			panel.Error = err.Error()
		} else if errors.Is(err, forecast.ErrForecastUnavailable) {
			panel.Error = MsgForecastUnavailable
		} else {
			panel.Error = DataUnavailable(ticker)
		}
		s.panelFailed(ticker, session.TabForecasting, err)
		return panel
	}

	panel.Description = fmt.Sprintf("**%s model:** %s", m.DisplayName(), res.Description)
	panel.Actual = make([]model.ForecastPoint, len(history))
	for i, b := range history {
		panel.Actual[i] = model.ForecastPoint{Date: b.Time, Price: b.Close}
	}
	panel.Predicted = res.Points
	panel.Band80 = res.Band80
	panel.Band95 = res.Band95
	panel.Summary = res.Summary
	panel.Table = make([]Row, len(res.Points))
	for i, p := range res.Points {
		panel.Table[i] = Row{Label: p.Date.Format(dateLayout), Value: formatPrice(p.Price)}
	}
	return panel
}

// RunForecast fetches history and runs one forecast, recording the run.
// source identifies the caller in the audit trail.
func (s *Service) RunForecast(ctx context.Context, ticker string, horizon int, m model.ForecastModel, source string) ([]model.OHLCV, *model.ForecastResult, error) {
	history, err := s.collector.History(ctx, ticker)
	if err != nil {
		return nil, nil, err
	}

	start := s.now()
	res, err := forecast.Forecast(history, horizon, m)
	run := &recorder.ForecastRun{
		Ticker:   ticker,
		Model:    string(m),
		Horizon:  horizon,
		Source:   source,
		Duration: s.now().Sub(start),
	}
	if len(history) > 0 {
		run.LastClose = history[len(history)-1].Close
	}
	if err != nil {
		run.Err = err.Error()
	} else {
		run.FinalPrice = res.Points[len(res.Points)-1].Price
		run.Summary = res.Summary
	}
	if recErr := s.recorder.RecordForecast(run); recErr != nil {
		logrus.WithError(recErr).WithField("ticker", ticker).Warn("record forecast failed")
	}

	logrus.WithFields(logrus.Fields{
		"ticker":   ticker,
		"model":    m,
		"horizon":  horizon,
		"duration": run.Duration,
	}).Debug("forecast run")
	if err != nil {
		return history, nil, err
	}
	return history, res, nil
}

func (s *Service) panelFailed(ticker string, tab session.Tab, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{"ticker": ticker, "tab": tab}).Warn("panel unavailable")
	if recErr := s.recorder.RecordPanelFailure(&recorder.PanelFailure{
		Ticker: ticker,
		Tab:    string(tab),
		Err:    err.Error(),
	}); recErr != nil {
		logrus.WithError(recErr).Warn("record panel failure failed")
	}
}
