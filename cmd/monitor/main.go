package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binance-price-monitor/config"
	"binance-price-monitor/internal/alert"
	"binance-price-monitor/internal/coins"
	"binance-price-monitor/internal/database"
	"binance-price-monitor/internal/metrics"
	"binance-price-monitor/internal/notify"
	"binance-price-monitor/internal/price"
	"binance-price-monitor/internal/telegram"
	"binance-price-monitor/lib/helpers"
	"binance-price-monitor/lib/translation"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	metricsSaveInterval = 5 * time.Minute
	stopTimeout         = 5 * time.Second
	adminTimeout        = time.Minute
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	admin := adminFlags{}
	flag.StringVar(&admin.setAlert, "set-alert", "", "set the alert thresholds of `SYMBOL` from -high and -low, replacing both, and exit")
	flag.StringVar(&admin.high, "high", "", "high threshold for -set-alert")
	flag.StringVar(&admin.low, "low", "", "low threshold for -set-alert")
	flag.StringVar(&admin.removeAlert, "remove-alert", "", "remove every alert threshold of `SYMBOL` and exit")
	flag.IntVar(&admin.cooldown, "cooldown", -1, "save the alert cooldown in `seconds` and exit")
	flag.BoolVar(&admin.listAlerts, "list-alerts", false, "list alert thresholds and exit")
	flag.BoolVar(&admin.checkNow, "check-now", false, "run one alert check, list the result and exit")
	flag.BoolVar(&admin.testNotification, "test-notification", false, "send a test notification and exit")
	pair := flag.String("pair", "", "trading pair shown first")
	displayMode := flag.String("display-mode", "", "override display_mode: compact, full or symbol_only")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Debugf("Settings: %s", spew.Sdump(redact(*settings)))

	translation.Configure("locales", settings.Lang)

	db, err := database.Open(settings.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	m.Load(db)

	interval := time.Duration(settings.UpdateInterval) * time.Second
	cooldown := time.Duration(settings.AlertCooldown) * time.Second

	names := coins.NewResolver(coins.NewClient(settings.CoinpaprikaAPIKey))
	feed := price.NewFeed(price.NewPublicClient(), 2*interval)
	updater := price.NewUpdater(feed, names, settings.TradingPairs, interval, settings.DisplayMode)
	if *pair != "" && !updater.Select(*pair) {
		log.Fatalf("Pair %s is not in trading_pairs %v", *pair, settings.TradingPairs)
	}
	if *displayMode != "" {
		if !validDisplayMode(*displayMode) {
			log.Fatalf("Unknown display mode %q", *displayMode)
		}
		updater.SetMode(*displayMode)
	}

	service := alert.NewService(feed, buildNotifier(settings, feed), thresholdStore(settings, db, cooldown), alert.Options{
		Interval: interval,
		Enabled:  settings.PriceAlertEnabled,
		Metrics:  m,
		Namer:    names,
		Glyph:    coins.Glyph,
	})
	loadErr := service.LoadThresholds()
	if loadErr != nil {
		log.Errorf("❌ %v", loadErr)
	}

	if admin.requested() {
		// edits would overwrite thresholds that could not be read
		if loadErr != nil {
			log.Fatalf("❌ Refusing to change alerts: %v", loadErr)
		}
		ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
		err := runAdmin(ctx, service, admin, os.Stdout)
		cancel()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctl := &controller{alerts: service, pairs: updater, actions: controlSignals()}
	sigC := make(chan os.Signal, 1)
	if sigs := ctl.signals(); len(sigs) > 0 {
		signal.Notify(sigC, sigs...)
		defer signal.Stop(sigC)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.Run(ctx, sigC) })
	g.Go(func() error { return updater.Run(ctx) })
	g.Go(func() error { return service.Run(ctx) })
	g.Go(func() error { return metrics.Serve(ctx, settings.MetricsPort, prometheus.DefaultGatherer) })
	g.Go(func() error {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				m.Save(db)
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Monitor stopped: %v", err)
	}

	service.Stop(stopTimeout)
	m.Save(db)
	log.Println("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting price monitor...")
}

func thresholdStore(s *config.Settings, db *database.DB, cooldown time.Duration) alert.ConfigStore {
	if s.ThresholdStore == "sqlite" {
		return &database.ThresholdStore{DB: db, DefaultCooldown: cooldown}
	}
	return &config.FileStore{Path: s.ConfigPath, DefaultCooldown: cooldown}
}

// buildNotifier chains the configured notifiers in order; log is appended when it was not configured
func buildNotifier(s *config.Settings, history telegram.HistorySource) notify.Chain {
	var chain notify.Chain
	hasLog := false
	for _, name := range s.Notifiers {
		switch name {
		case "desktop":
			chain = append(chain, notify.NewDesktop(translation.Translate("Crypto Price Monitor")))
		case "telegram":
			bot, err := telegram.NewBot(telegram.BotConfig{
				Token:  s.Telegram.Token,
				ChatID: s.Telegram.ChatID,
				Debug:  s.Debug,
			}, history)
			if err != nil {
				log.Errorf("❌ Telegram notifications disabled: %v", err)
				continue
			}
			chain = append(chain, bot)
		case "log":
			chain = append(chain, notify.Log{})
			hasLog = true
		default:
			log.Warnf("⚠️ Unknown notifier %q", name)
		}
	}
	if !hasLog {
		chain = append(chain, notify.Log{})
	}
	return chain
}

func validDisplayMode(mode string) bool {
	switch mode {
	case helpers.ModeCompact, helpers.ModeFull, helpers.ModeSymbolOnly:
		return true
	}
	return false
}

func redact(s config.Settings) config.Settings {
	for _, secret := range []*string{&s.BinanceAPI.APIKey, &s.BinanceAPI.APISecret, &s.Telegram.Token, &s.CoinpaprikaAPIKey} {
		if *secret != "" {
			*secret = "***"
		}
	}
	return s
}
