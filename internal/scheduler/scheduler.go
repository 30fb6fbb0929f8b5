package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"TickerScope/internal/collector"
	"TickerScope/internal/dashboard"
	"TickerScope/internal/model"
	"TickerScope/internal/notifier"
)

// Sender delivers a message; *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Dashboard *dashboard.Service
	Notifier  Sender // nil disables notifications
	Model     model.ForecastModel
	Horizon   int
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler that forecasts with the given defaults.
func NewScheduler(ctx context.Context, col *collector.Collector, svc *dashboard.Service, sender Sender, m model.ForecastModel, horizon int) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Dashboard: svc,
		Notifier:  sender,
		Model:     m,
		Horizon:   horizon,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache warm-up and the forecast digest.
func (s *Scheduler) RegisterAll(warmCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logrus.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logrus.Info("scheduler stopped")
}

// WarmNow fetches everything the dashboard shows for every ticker, filling the cache.
func (s *Scheduler) WarmNow() {
	s.warmTask()
}

func (s *Scheduler) warmTask() {
	start := time.Now()
	failed := 0
	for _, t := range s.Dashboard.Tickers() {
		log := logrus.WithField("ticker", t)
		if _, err := s.Collector.Profile(s.Ctx, t); err != nil {
			log.WithError(err).Warn("warm profile")
			failed++
		}
		if _, err := s.Collector.History(s.Ctx, t); err != nil {
			log.WithError(err).Warn("warm history")
			failed++
		}
		if _, err := s.Collector.News(s.Ctx, t); err != nil {
			log.WithError(err).Warn("warm news")
			failed++
		}
	}
	logrus.WithFields(logrus.Fields{"failed": failed, "duration": time.Since(start)}).Info("cache warm-up finished")
}

// Digest runs the default forecast for every ticker and formats the result.
func (s *Scheduler) Digest() string {
	entries := make([]notifier.DigestEntry, 0, len(s.Dashboard.Tickers()))
	for _, t := range s.Dashboard.Tickers() {
		e := notifier.DigestEntry{Ticker: t}
		history, res, err := s.Dashboard.RunForecast(s.Ctx, t, s.Horizon, s.Model, "digest")
		if len(history) > 0 {
			e.LastClose = history[len(history)-1].Close
		}
		if err != nil {
			logrus.WithError(err).WithField("ticker", t).Warn("digest forecast failed")
			e.Err = dashboard.MsgForecastUnavailable
			if len(history) == 0 {
				e.Err = dashboard.DataUnavailable(t)
			}
		} else {
			e.Result = res
		}
		entries = append(entries, e)
	}
	return notifier.FormatDigest(time.Now(), s.Model, entries)
}

func (s *Scheduler) digestTask() {
	logrus.Info("running forecast digest")
	s.trySend(s.Digest())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText(s.Dashboard.Tickers())
	}
	// Telegram appends "@botname" to commands in group chats.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch cmd {
	case "/quote", "/news", "/forecast":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %s TICKER", cmd)
		}
		ticker := strings.ToUpper(args[0])
		if !s.Dashboard.HasTicker(ticker) {
			return fmt.Sprintf("Unknown ticker %s. Tickers: %s", ticker, strings.Join(s.Dashboard.Tickers(), ", "))
		}
		switch cmd {
		case "/quote":
			return s.quote(ctx, ticker)
		case "/news":
			return s.news(ctx, ticker)
		default:
			return s.forecast(ctx, ticker, args[1:])
		}
	case "/digest":
		return s.Digest()
	default:
		return notifier.HelpText(s.Dashboard.Tickers())
	}
}

func (s *Scheduler) quote(ctx context.Context, ticker string) string {
	p, err := s.Collector.Profile(ctx, ticker)
	if err != nil {
		logrus.WithError(err).WithField("ticker", ticker).Warn("quote command")
		return dashboard.DataUnavailable(ticker)
	}
	return notifier.FormatQuote(p)
}

func (s *Scheduler) news(ctx context.Context, ticker string) string {
	items, err := s.Collector.News(ctx, ticker)
	if err != nil {
		logrus.WithError(err).WithField("ticker", ticker).Warn("news command")
		return dashboard.DataUnavailable(ticker)
	}
	return notifier.FormatNews(ticker, items, time.Now())
}

// forecast accepts an optional model and an optional horizon in any order.
func (s *Scheduler) forecast(ctx context.Context, ticker string, args []string) string {
	m, horizon := s.Model, s.Horizon
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			if n < model.MinHorizon || n > model.MaxHorizon {
				return fmt.Sprintf("Horizon must be between %d and %d days", model.MinHorizon, model.MaxHorizon)
			}
			horizon = n
			continue
		}
		parsed, err := model.ParseForecastModel(a)
		if err != nil {
			return "Model must be arima or ets"
		}
		m = parsed
	}

	history, res, err := s.Dashboard.RunForecast(ctx, ticker, horizon, m, "telegram")
	if err != nil {
		if len(history) == 0 {
			return dashboard.DataUnavailable(ticker)
		}
		return dashboard.MsgForecastUnavailable
	}
	return notifier.FormatForecast(ticker, history[len(history)-1].Close, res)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logrus.WithError(err).Error("send notification")
	}
}
