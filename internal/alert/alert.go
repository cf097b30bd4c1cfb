package alert

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"binance-price-monitor/internal/metrics"
	"binance-price-monitor/internal/types"
	"binance-price-monitor/lib/translation"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DefaultInterval is the polling interval used when Options.Interval is zero
const DefaultInterval = 30 * time.Second

// PriceFeed returns the current price of a symbol
type PriceFeed interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Notifier delivers a notification; delivery is best effort
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// EventNotifier is implemented by notifiers that render the alert event themselves
type EventNotifier interface {
	NotifyEvent(ctx context.Context, ev types.AlertEvent, title, message string) error
}

// ConfigStore persists alert thresholds
type ConfigStore interface {
	Load() (types.AlertConfig, error)
	Save(thresholds map[string]types.AlertThreshold) error
}

// CooldownStore is implemented by stores that persist the alert cooldown
type CooldownStore interface {
	SaveCooldown(d time.Duration) error
}

// Namer resolves display names of trading pairs
type Namer interface {
	Name(pair string) string
}

// Options of a Service
type Options struct {
	Interval time.Duration
	Enabled  bool
	Metrics  *metrics.Metrics
	Namer    Namer
	Glyph    func(pair string) string
	Clock    func() time.Time
}

// Service polls prices of every symbol with thresholds and notifies when the engine fires.
type Service struct {
	feed     PriceFeed
	notifier Notifier
	store    ConfigStore
	opts     Options

	// mu serializes the polling loop, manual checks and threshold edits
	mu     sync.Mutex
	engine *Engine

	started atomic.Bool
	stopC   chan struct{}
	doneC   chan struct{}
	once    sync.Once
}

// NewService creates a service; call LoadThresholds before Run
func NewService(feed PriceFeed, notifier Notifier, store ConfigStore, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Glyph == nil {
		opts.Glyph = func(pair string) string { return pair }
	}
	return &Service{
		feed:     feed,
		notifier: notifier,
		store:    store,
		opts:     opts,
		engine:   NewEngine(0),
		stopC:    make(chan struct{}),
		doneC:    make(chan struct{}),
	}
}

// LoadThresholds replaces the engine configuration with what the store holds
func (s *Service) LoadThresholds() error {
	cfg, err := s.store.Load()
	if err != nil {
		return errors.Wrap(err, "could not load alert thresholds")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetCooldown(cfg.Cooldown)
	for _, symbol := range s.engine.Symbols() {
		if _, ok := cfg.Thresholds[symbol]; !ok {
			s.engine.RemoveThreshold(symbol)
		}
	}
	for symbol, t := range cfg.Thresholds {
		t.Symbol = symbol
		// unchanged thresholds keep their armed state across reloads
		if cur, ok := s.engine.Threshold(symbol); ok && sameThreshold(cur, t) {
			continue
		}
		s.engine.SetThreshold(t)
	}

	log.WithField("symbols", len(cfg.Thresholds)).Infof("🔔 Loaded alert thresholds, cooldown %s", cfg.Cooldown)
	return nil
}

// Run polls until ctx is cancelled or Stop is called
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("alert service already started")
	}
	defer close(s.doneC)

	if !s.opts.Enabled {
		log.Info("🔕 Price alerts are disabled.")
		select {
		case <-ctx.Done():
		case <-s.stopC:
		}
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.stopC:
		return nil
	default:
	}

	log.Println("🚀 Alert service started.")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.CheckNow(ctx)

		select {
		case <-ctx.Done():
			log.Println("🛑 Alert service stopped.")
			return nil
		case <-s.stopC:
			log.Println("🛑 Alert service stopped.")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop signals Run to return and waits at most timeout for it
func (s *Service) Stop(timeout time.Duration) bool {
	s.once.Do(func() { close(s.stopC) })
	if !s.started.Load() {
		return true
	}

	select {
	case <-s.doneC:
		return true
	case <-time.After(timeout):
		log.Warnf("⚠️ Alert service did not stop within %s", timeout)
		return false
	}
}

// CheckNow runs one polling cycle over every symbol with thresholds
func (s *Service) CheckNow(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 1024)
			buf = buf[:runtime.Stack(buf, false)]
			log.Errorf("🔥 Panic recovered in alert checker: %v\n%s", r, buf)
		}
	}()

	log.Debug("🔄 Checking alerts...")

	s.mu.Lock()
	symbols := s.engine.Symbols()
	s.mu.Unlock()

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		s.check(ctx, symbol)
	}

	s.mu.Lock()
	alarmed := 0
	for _, symbol := range s.engine.Symbols() {
		if s.engine.Alarmed(symbol) {
			alarmed++
		}
	}
	s.mu.Unlock()

	s.opts.Metrics.CycleCompleted(alarmed)
	log.Debug("✅ Alert check completed.")
}

func (s *Service) check(ctx context.Context, symbol string) {
	price, err := s.feed.GetPrice(ctx, symbol)
	if err != nil {
		s.opts.Metrics.PriceFetchFailed(symbol)
		log.WithField("symbol", symbol).Errorf("❌ Failed to fetch price: %v", err)
		return
	}

	s.mu.Lock()
	now := s.opts.Clock()
	events, err := s.engine.Evaluate(symbol, price, now)
	for _, dir := range []types.Direction{types.DirectionHigh, types.DirectionLow} {
		if s.engine.Suppressed(symbol, dir, price, now) {
			s.opts.Metrics.AlertSuppressed(dir)
			log.WithFields(log.Fields{"symbol": symbol, "direction": dir}).Debug("⏳ Alert held back by cooldown")
		}
	}
	s.mu.Unlock()

	if err != nil {
		log.WithField("symbol", symbol).Warnf("⚠️ Skipping evaluation: %v", err)
		return
	}

	for _, ev := range events {
		s.opts.Metrics.AlertFired(ev.Direction)
		s.deliver(ctx, ev)
	}
}

func (s *Service) deliver(ctx context.Context, ev types.AlertEvent) {
	title, message := s.render(ev)
	fields := log.Fields{"symbol": ev.Symbol, "direction": ev.Direction, "price": ev.Price.String()}

	var err error
	if en, ok := s.notifier.(EventNotifier); ok {
		err = en.NotifyEvent(ctx, ev, title, message)
	} else {
		err = s.notifier.Notify(ctx, title, message)
	}
	if err != nil {
		s.opts.Metrics.NotificationFailed()
		log.WithFields(fields).Errorf("❌ Failed to send alert notification: %v", err)
		return
	}
	log.WithFields(fields).Info("✅ Alert notification sent")
}

func (s *Service) render(ev types.AlertEvent) (string, string) {
	glyph := s.opts.Glyph(ev.Symbol)
	name := ev.Symbol
	if s.opts.Namer != nil {
		name = s.opts.Namer.Name(ev.Symbol)
	}

	if ev.Direction == types.DirectionHigh {
		return translation.Translate("%s %s high price alert", glyph, name),
			translation.Translate("Current price %s reached or exceeded the high threshold %s", ev.Price.String(), ev.Threshold.String())
	}
	return translation.Translate("%s %s low price alert", glyph, name),
		translation.Translate("Current price %s reached or fell below the low threshold %s", ev.Price.String(), ev.Threshold.String())
}

// SetThreshold changes the thresholds of a symbol, re-arms it and persists the result.
// An empty threshold removes the symbol.
func (s *Service) SetThreshold(t types.AlertThreshold) error {
	s.mu.Lock()
	s.engine.SetThreshold(t)
	thresholds := s.engine.Thresholds()
	s.mu.Unlock()

	return errors.Wrap(s.store.Save(thresholds), "could not save alert thresholds")
}

// RemoveThreshold drops every threshold of symbol and persists the result
func (s *Service) RemoveThreshold(symbol string) error {
	s.mu.Lock()
	s.engine.RemoveThreshold(symbol)
	thresholds := s.engine.Thresholds()
	s.mu.Unlock()

	return errors.Wrap(s.store.Save(thresholds), "could not save alert thresholds")
}

// SetCooldown changes the cooldown and persists it when the store supports it
func (s *Service) SetCooldown(d time.Duration) error {
	if d < 0 {
		return errors.Errorf("cooldown must not be negative, got %s", d)
	}
	cs, ok := s.store.(CooldownStore)
	if !ok {
		return errors.Errorf("%T cannot save the alert cooldown", s.store)
	}

	s.mu.Lock()
	s.engine.SetCooldown(d)
	s.mu.Unlock()

	return errors.Wrap(cs.SaveCooldown(d), "could not save alert cooldown")
}

// Cooldown returns the current alert cooldown
func (s *Service) Cooldown() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Cooldown()
}

// Thresholds returns the configured thresholds sorted by symbol
func (s *Service) Thresholds() []types.AlertThreshold {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.AlertThreshold, 0)
	for _, t := range s.engine.Thresholds() {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Alarmed reports whether any direction of symbol was triggered at the last evaluation
func (s *Service) Alarmed(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Alarmed(symbol)
}

// TestNotification sends a fixed notification through the configured notifier
func (s *Service) TestNotification(ctx context.Context) error {
	err := s.notifier.Notify(ctx,
		translation.Translate("Test notification"),
		translation.Translate("If you can see this notification, price alerts are working!"))
	if err != nil {
		s.opts.Metrics.NotificationFailed()
		return errors.Wrap(err, "test notification failed")
	}
	return nil
}

func sameThreshold(a, b types.AlertThreshold) bool {
	return sameBound(a.High, b.High) && sameBound(a.Low, b.Low)
}

func sameBound(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
