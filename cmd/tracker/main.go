package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"TaseTracker/internal/alert"
	"TaseTracker/internal/calendar"
	"TaseTracker/internal/collector"
	"TaseTracker/internal/config"
	"TaseTracker/internal/fx"
	"TaseTracker/internal/logging"
	"TaseTracker/internal/notifier"
	"TaseTracker/internal/portfolio"
	"TaseTracker/internal/recorder"
	"TaseTracker/internal/scheduler"
	"TaseTracker/internal/session"
	"TaseTracker/internal/tracker"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.New("info").Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("TaseTracker starting")

	displayLoc := session.MustLoadLocation(cfg.DataSource.DisplayTZ, 1)
	cacheTTL, _ := cfg.CacheTTL()
	refreshInterval, _ := cfg.RefreshInterval()

	// Session classifier
	schedule, err := buildSchedule(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange schedule")
	}
	holidays, err := calendar.NewStatic(cfg.Exchange.Holidays)
	if err != nil {
		log.Fatal().Err(err).Msg("holiday calendar")
	}
	classifier, err := session.NewClassifier(schedule, holidays, calendar.SystemClock)
	if err != nil {
		log.Fatal().Err(err).Msg("session classifier")
	}

	// Quote source
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, displayLoc, cfg.DataSource.RateLimit)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, displayLoc, cfg.DataSource.RateLimit)
	}
	cache := collector.NewCache(fetcher, cacheTTL)
	col := collector.NewCollector(cache, log)
	log.Info().Str("source", cache.Name()).Dur("cache_ttl", cacheTTL).Msg("data source ready")

	// Notifiers
	var tn *notifier.TelegramNotifier
	var channels notifier.Multi
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		channels = append(channels, tn)
	}
	if cfg.Discord.WebhookURL != "" {
		channels = append(channels, notifier.NewDiscordNotifier(cfg.Discord.WebhookURL))
	}
	if cfg.Email.Enabled {
		channels = append(channels, notifier.NewSMTPNotifier(cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Address, cfg.Email.Password))
	}
	var n notifier.Notifier = channels
	if len(channels) == 0 {
		log.Warn().Msg("no notification channel configured")
		n = notifier.Noop{}
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Valuation
	rates, err := fx.NewManager(cfg.Markets.LocalCurrency, cfg.Markets.ForeignCurrency, cfg.FX.Rate)
	if err != nil {
		log.Fatal().Err(err).Msg("fx rate")
	}
	agg, err := portfolio.NewAggregator(cfg.Markets, rates, cfg.FX.ReportingCurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("portfolio aggregator")
	}

	tr, err := tracker.New(tracker.Options{
		Watchlist:     cfg.DataSource.Watchlist,
		DefaultSymbol: cfg.DataSource.DefaultSymbol,
		UserLocation:  displayLoc,
		AutoRefresh:   cfg.Schedule.AutoRefresh,
	}, tracker.Deps{
		Markets:    cfg.Markets,
		Classifier: classifier,
		Collector:  col,
		Engine:     alert.NewEngine(cfg.Markets, n, rec, log),
		Aggregator: agg,
		Notifier:   n,
		Recorder:   rec,
		Log:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tracker")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, tr, refreshInterval, log)
	if err := sched.RegisterAll(true, cfg.Schedule.DigestCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand, log)
		log.Info().Msg("telegram polling started")
	}

	// Drop expired quotes so the cache does not grow with one-off symbols.
	go purgeLoop(ctx, cache, cacheTTL, log)

	st := classifier.Now()
	log.Info().Str("state", string(st.State)).Str("reason", string(st.Reason)).
		Bool("holiday_data_missing", st.HolidayDataMissing).Msg("TaseTracker is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
}

func buildSchedule(cfg *config.Config) (session.Schedule, error) {
	open, err := config.ParseClock(cfg.Exchange.Open)
	if err != nil {
		return session.Schedule{}, err
	}
	closeAt, err := config.ParseClock(cfg.Exchange.Close)
	if err != nil {
		return session.Schedule{}, err
	}
	rest, err := cfg.RestDays()
	if err != nil {
		return session.Schedule{}, err
	}
	s := session.Schedule{
		Location: session.MustLoadLocation(cfg.Exchange.Timezone, 2),
		Open:     open,
		Close:    closeAt,
		RestDays: rest,
	}
	return s, s.Validate()
}

func purgeLoop(ctx context.Context, cache *collector.Cache, every time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.Purge(); n > 0 {
				log.Debug().Int("entries", n).Msg("quote cache purged")
			}
		}
	}
}
