package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"TickerScope/internal/cache"
	"TickerScope/internal/collector"
	"TickerScope/internal/config"
	"TickerScope/internal/dashboard"
	"TickerScope/internal/notifier"
	"TickerScope/internal/recorder"
	"TickerScope/internal/scheduler"
	"TickerScope/internal/server"
	"TickerScope/internal/session"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config validation")
	}
	setupLogging(cfg)
	logrus.Info("TickerScope starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Cache.Backend == config.BackendRedis || cfg.Session.Backend == config.BackendRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).WithField("addr", cfg.Redis.Addr).Fatal("connect redis")
		}
	}

	fetcher := newFetcher(cfg)
	logrus.WithField("provider", fetcher.Name()).Info("data source selected")

	store, err := newCacheStore(cfg, rdb)
	if err != nil {
		logrus.WithError(err).Fatal("init fetch cache")
	}
	col := collector.NewCollector(collector.NewCachedFetcher(fetcher, store))
	col.Lookback = cfg.Lookback()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logrus.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	svc := dashboard.NewService(col, rec, cfg.Dashboard.Tickers)

	sessions, err := newSessionStore(cfg, rdb)
	if err != nil {
		logrus.WithError(err).Fatal("init session store")
	}

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, svc, sender, cfg.DefaultModel(), cfg.Dashboard.DefaultHorizon)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron, cfg.Schedule.DigestCron); err != nil {
		logrus.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logrus.Info("Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logrus.Info("RUN_ON_START enabled, warming cache now")
		go sched.WarmNow()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.NewHandler(svc, sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("addr", cfg.HTTP.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown")
	}
	logrus.Info("TickerScope stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case config.ProviderAlpaca:
		return collector.NewAlpacaFetcher(cfg.DataSource.AlpacaAPIKey, cfg.DataSource.AlpacaSecretKey)
	case config.ProviderMock:
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func newCacheStore(cfg *config.Config, rdb *redis.Client) (cache.Store, error) {
	if cfg.Cache.Backend == config.BackendRedis {
		return cache.NewRedisStore(rdb, "tickerscope:cache:", cfg.CacheTTL()), nil
	}
	return cache.NewMemoryStore(cfg.CacheOptions())
}

func newSessionStore(cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		return session.NewRedisStore(rdb, cfg.SessionTTL()), nil
	case config.BackendFile:
		return session.NewFileStore(cfg.Session.File)
	default:
		return session.NewMemoryStore(), nil
	}
}
