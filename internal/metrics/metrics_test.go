package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"binance-price-monitor/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type memStore struct {
	plain   map[string]float64
	labeled map[string]map[string]map[string]float64
}

func newMemStore() *memStore {
	return &memStore{
		plain:   make(map[string]float64),
		labeled: make(map[string]map[string]map[string]float64),
	}
}

func (s *memStore) SaveMetric(name, labelKey, labelValue string, value float64) error {
	if labelKey == "" {
		s.plain[name] = value
		return nil
	}
	if s.labeled[name] == nil {
		s.labeled[name] = make(map[string]map[string]float64)
	}
	if s.labeled[name][labelKey] == nil {
		s.labeled[name][labelKey] = make(map[string]float64)
	}
	s.labeled[name][labelKey][labelValue] = value
	return nil
}

func (s *memStore) GetMetric(name string) (float64, error) {
	return s.plain[name], nil
}

func (s *memStore) GetMetricsWithLabels(name string) (map[string]map[string]float64, error) {
	return s.labeled[name], nil
}

func TestSaveAndLoad(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AlertFired(types.DirectionHigh)
	m.AlertFired(types.DirectionHigh)
	m.AlertFired(types.DirectionLow)
	m.AlertSuppressed(types.DirectionLow)
	m.NotificationFailed()
	m.PriceFetchFailed("BTCUSDT")
	m.CycleCompleted(1)
	m.CycleCompleted(0)

	store := newMemStore()
	m.Save(store)

	restored := New(prometheus.NewRegistry())
	restored.Load(store)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"fired high", testutil.ToFloat64(restored.AlertsFired.WithLabelValues("high")), 2},
		{"fired low", testutil.ToFloat64(restored.AlertsFired.WithLabelValues("low")), 1},
		{"suppressed low", testutil.ToFloat64(restored.AlertsSuppressed.WithLabelValues("low")), 1},
		{"notifications failed", testutil.ToFloat64(restored.NotificationsFailed), 1},
		{"fetch errors", testutil.ToFloat64(restored.PriceFetchErrors.WithLabelValues("BTCUSDT")), 1},
		{"cycles", testutil.ToFloat64(restored.PollingCycles), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AlertFired(types.DirectionHigh)
	m.AlertSuppressed(types.DirectionLow)
	m.NotificationFailed()
	m.PriceFetchFailed("BTCUSDT")
	m.CycleCompleted(3)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.AlertFired(types.DirectionHigh)

	srv := httptest.NewServer(NewHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `binance_price_monitor_alerts_fired_total{direction="high"} 1`) {
		t.Errorf("/metrics does not expose the fired counter:\n%s", body)
	}
}
