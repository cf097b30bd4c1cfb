package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"binance-price-monitor/config"
	"binance-price-monitor/internal/alert"
	"binance-price-monitor/internal/database"
	"binance-price-monitor/internal/notify"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestBuildNotifier(t *testing.T) {
	tests := []struct {
		name      string
		notifiers []string
		want      []string
	}{
		{"defaults", []string{"desktop", "log"}, []string{"*notify.Desktop", "notify.Log"}},
		{"log appended", []string{"desktop"}, []string{"*notify.Desktop", "notify.Log"}},
		{"log kept in place", []string{"log", "desktop"}, []string{"notify.Log", "*notify.Desktop"}},
		{"unknown skipped", []string{"pager", "desktop"}, []string{"*notify.Desktop", "notify.Log"}},
		{"telegram without chat id", []string{"telegram"}, []string{"notify.Log"}},
		{"nothing configured", nil, []string{"notify.Log"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &config.Settings{Notifiers: tt.notifiers}
			chain := buildNotifier(s, nil)

			got := make([]string, 0, len(chain))
			for _, n := range chain {
				got = append(got, fmt.Sprintf("%T", n))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("buildNotifier(%v) = %v, want %v", tt.notifiers, got, tt.want)
			}
		})
	}
}

func TestThresholdStore(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	tests := []struct {
		name  string
		store string
		want  string
	}{
		{"sqlite", "sqlite", "*database.ThresholdStore"},
		{"file", "file", "*config.FileStore"},
		{"unset", "", "*config.FileStore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &config.Settings{ThresholdStore: tt.store, ConfigPath: "config.json"}
			store := thresholdStore(s, db, time.Minute)
			if got := fmt.Sprintf("%T", store); got != tt.want {
				t.Errorf("thresholdStore(%q) = %s, want %s", tt.store, got, tt.want)
			}
			if _, ok := store.(alert.CooldownStore); !ok {
				t.Errorf("%s cannot save the cooldown", tt.want)
			}
		})
	}
}

type staticFeed map[string]string

func (f staticFeed) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := f[symbol]
	if !ok {
		return decimal.Zero, errors.New("no price")
	}
	return decimal.RequireFromString(p), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func newAdminService(t *testing.T, feed staticFeed, n notify.Notifier) (*alert.Service, *config.FileStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"trading_pairs": ["BTCUSDT"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &config.FileStore{Path: path, DefaultCooldown: 300 * time.Second}
	svc := alert.NewService(feed, n, store, alert.Options{})
	if err := svc.LoadThresholds(); err != nil {
		t.Fatal(err)
	}
	return svc, store
}

func TestRunAdmin_EditsArePersisted(t *testing.T) {
	svc, store := newAdminService(t, staticFeed{}, &recordingNotifier{})
	ctx := context.Background()
	var out bytes.Buffer

	err := runAdmin(ctx, svc, adminFlags{setAlert: "btcusdt", high: "70000", low: "60000", cooldown: 120, listAlerts: true}, &out)
	if err != nil {
		t.Fatalf("runAdmin: %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	btc, ok := cfg.Thresholds["BTCUSDT"]
	if !ok || !btc.High.Equal(decimal.NewFromInt(70000)) || !btc.Low.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("stored BTCUSDT = %+v", btc)
	}
	if cfg.Cooldown != 2*time.Minute {
		t.Errorf("stored cooldown = %s", cfg.Cooldown)
	}
	if !strings.Contains(out.String(), "BTCUSDT") || !strings.Contains(out.String(), "70000") {
		t.Errorf("listing misses the new threshold:\n%s", out.String())
	}

	out.Reset()
	if err := runAdmin(ctx, svc, adminFlags{removeAlert: "BTCUSDT", cooldown: -1}, &out); err != nil {
		t.Fatalf("runAdmin: %v", err)
	}
	cfg, _ = store.Load()
	if len(cfg.Thresholds) != 0 {
		t.Errorf("BTCUSDT should be removed, got %+v", cfg.Thresholds)
	}
	if cfg.Cooldown != 2*time.Minute {
		t.Errorf("cooldown -1 must leave the stored value alone, got %s", cfg.Cooldown)
	}
}

func TestRunAdmin_CheckNow(t *testing.T) {
	n := &recordingNotifier{}
	svc, _ := newAdminService(t, staticFeed{"BTCUSDT": "71000", "ETHUSDT": "3000"}, n)
	var out bytes.Buffer

	flags := adminFlags{setAlert: "BTCUSDT", high: "70000", cooldown: -1, checkNow: true}
	if err := runAdmin(context.Background(), svc, flags, &out); err != nil {
		t.Fatalf("runAdmin: %v", err)
	}
	if len(n.titles) != 1 || !strings.Contains(n.titles[0], "high price alert") {
		t.Errorf("expected one high alert, got %v", n.titles)
	}
	if !strings.Contains(out.String(), "🚨") {
		t.Errorf("listing should mark BTCUSDT as alarmed:\n%s", out.String())
	}
}

func TestRunAdmin_InvalidThreshold(t *testing.T) {
	tests := []struct {
		name      string
		high, low string
	}{
		{"no bounds", "", ""},
		{"not a number", "abc", ""},
		{"zero", "0", ""},
		{"negative low", "", "-5"},
		{"high below low", "100", "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newAdminService(t, staticFeed{}, &recordingNotifier{})
			err := runAdmin(context.Background(), svc, adminFlags{setAlert: "BTCUSDT", high: tt.high, low: tt.low, cooldown: -1}, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected an error")
			}
			cfg, _ := store.Load()
			if len(cfg.Thresholds) != 0 {
				t.Errorf("invalid input must not be saved, got %+v", cfg.Thresholds)
			}
		})
	}
}

func TestAdminFlags_Requested(t *testing.T) {
	tests := []struct {
		name  string
		flags adminFlags
		want  bool
	}{
		{"daemon", adminFlags{cooldown: -1}, false},
		{"zero cooldown", adminFlags{cooldown: 0}, true},
		{"list", adminFlags{cooldown: -1, listAlerts: true}, true},
		{"test notification", adminFlags{cooldown: -1, testNotification: true}, true},
		{"remove", adminFlags{cooldown: -1, removeAlert: "BTCUSDT"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.requested(); got != tt.want {
				t.Errorf("requested() = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeReloader struct {
	loads, checks int
	err           error
}

func (r *fakeReloader) LoadThresholds() error {
	r.loads++
	return r.err
}

func (r *fakeReloader) CheckNow(context.Context) { r.checks++ }

type fakeCycler struct {
	moves     []string
	refreshes int
}

func (c *fakeCycler) Next() string {
	c.moves = append(c.moves, "next")
	return "ETHUSDT"
}

func (c *fakeCycler) Previous() string {
	c.moves = append(c.moves, "previous")
	return "BTCUSDT"
}

func (c *fakeCycler) Refresh(context.Context) bool {
	c.refreshes++
	return true
}

func TestController_Handle(t *testing.T) {
	ctx := context.Background()

	r, p := &fakeReloader{}, &fakeCycler{}
	c := &controller{alerts: r, pairs: p}
	c.handle(ctx, actionReload)
	c.handle(ctx, actionNextPair)
	c.handle(ctx, actionPreviousPair)
	c.handle(ctx, 0)

	if r.loads != 1 || r.checks != 1 {
		t.Errorf("reload should load then check, got %d loads %d checks", r.loads, r.checks)
	}
	if strings.Join(p.moves, ",") != "next,previous" || p.refreshes != 2 {
		t.Errorf("pair moves = %v, refreshes = %d", p.moves, p.refreshes)
	}

	failing := &fakeReloader{err: errors.New("broken config")}
	(&controller{alerts: failing, pairs: p}).handle(ctx, actionReload)
	if failing.checks != 0 {
		t.Errorf("a failed reload must not run a check")
	}
}

func TestController_RunDispatchesSignals(t *testing.T) {
	r := &fakeReloader{}
	c := &controller{alerts: r, pairs: &fakeCycler{}, actions: map[os.Signal]controlAction{os.Interrupt: actionReload}}

	ctx, cancel := context.WithCancel(context.Background())
	sigC := make(chan os.Signal)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, sigC) }()

	sigC <- os.Interrupt
	sigC <- os.Interrupt
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if r.loads != 2 {
		t.Errorf("expected 2 reloads, got %d", r.loads)
	}
}

func TestValidDisplayMode(t *testing.T) {
	for mode, want := range map[string]bool{"compact": true, "full": true, "symbol_only": true, "huge": false, "": false} {
		if got := validDisplayMode(mode); got != want {
			t.Errorf("validDisplayMode(%q) = %v, want %v", mode, got, want)
		}
	}
}
