package database

import (
	"path/filepath"
	"testing"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "monitor.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestThresholdStore_RoundTrip(t *testing.T) {
	store := &ThresholdStore{DB: openTestDB(t), DefaultCooldown: 300 * time.Second}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load on empty db: %v", err)
	}
	if len(cfg.Thresholds) != 0 || cfg.Cooldown != 300*time.Second {
		t.Fatalf("unexpected empty config: %+v", cfg)
	}

	want := map[string]types.AlertThreshold{
		"BTCUSDT": {Symbol: "BTCUSDT", High: decPtr("70000"), Low: decPtr("60000.5")},
		"ETHUSDT": {Symbol: "ETHUSDT", Low: decPtr("2500")},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.SaveCooldown(90 * time.Second); err != nil {
		t.Fatalf("SaveCooldown: %v", err)
	}

	cfg, err = store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cooldown != 90*time.Second {
		t.Errorf("cooldown = %v, want 90s", cfg.Cooldown)
	}
	btc := cfg.Thresholds["BTCUSDT"]
	if btc.High == nil || !btc.High.Equal(*want["BTCUSDT"].High) || btc.Low == nil || !btc.Low.Equal(*want["BTCUSDT"].Low) {
		t.Errorf("BTCUSDT = %+v", btc)
	}
	eth := cfg.Thresholds["ETHUSDT"]
	if eth.High != nil || eth.Low == nil || !eth.Low.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("ETHUSDT = %+v", eth)
	}

	delete(want, "ETHUSDT")
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}
	cfg, _ = store.Load()
	if _, ok := cfg.Thresholds["ETHUSDT"]; ok {
		t.Errorf("ETHUSDT should be removed after Save without it")
	}
}

func TestMetrics(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetric("polling_cycles")
	if err != nil || v != 0 {
		t.Fatalf("missing metric = %v, %v; want 0, nil", v, err)
	}

	if err := db.SaveMetric("polling_cycles", "", "", 12); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMetric("alerts_fired", "direction", "high", 3); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMetric("alerts_fired", "direction", "high", 4); err != nil {
		t.Fatal(err)
	}

	if v, _ := db.GetMetric("polling_cycles"); v != 12 {
		t.Errorf("polling_cycles = %v, want 12", v)
	}
	labeled, err := db.GetMetricsWithLabels("alerts_fired")
	if err != nil {
		t.Fatal(err)
	}
	if labeled["direction"]["high"] != 4 {
		t.Errorf("alerts_fired = %v", labeled)
	}
	if plain, _ := db.GetMetricsWithLabels("polling_cycles"); len(plain) != 0 {
		t.Errorf("unlabeled metric leaked into labeled query: %v", plain)
	}
}
