package metrics

import (
	"binance-price-monitor/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "binance"
	subsystem = "price_monitor"
)

// Metrics groups the collectors of the monitor
type Metrics struct {
	AlertsFired         *prometheus.CounterVec
	AlertsSuppressed    *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
	PriceFetchErrors    *prometheus.CounterVec
	PollingCycles       prometheus.Counter
	AlarmedSymbols      prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_fired_total",
				Help:      "The total number of price alerts that produced a notification",
			},
			[]string{"direction"},
		),
		AlertsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_suppressed_total",
				Help:      "The total number of threshold crossings held back by the cooldown",
			},
			[]string{"direction"},
		),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "The total number of notifications that could not be delivered",
		}),
		PriceFetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "price_fetch_errors_total",
				Help:      "The total number of failed price requests",
			},
			[]string{"symbol"},
		),
		PollingCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "polling_cycles_total",
			Help:      "The total number of completed alert polling cycles",
		}),
		AlarmedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alarmed_symbols",
			Help:      "The number of symbols with a triggered alert",
		}),
	}

	reg.MustRegister(
		m.AlertsFired,
		m.AlertsSuppressed,
		m.NotificationsFailed,
		m.PriceFetchErrors,
		m.PollingCycles,
		m.AlarmedSymbols,
	)
	return m
}

func (m *Metrics) AlertFired(dir types.Direction) {
	if m == nil {
		return
	}
	m.AlertsFired.WithLabelValues(string(dir)).Inc()
}

func (m *Metrics) AlertSuppressed(dir types.Direction) {
	if m == nil {
		return
	}
	m.AlertsSuppressed.WithLabelValues(string(dir)).Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.NotificationsFailed.Inc()
}

func (m *Metrics) PriceFetchFailed(symbol string) {
	if m == nil {
		return
	}
	m.PriceFetchErrors.WithLabelValues(symbol).Inc()
}

func (m *Metrics) CycleCompleted(alarmed int) {
	if m == nil {
		return
	}
	m.PollingCycles.Inc()
	m.AlarmedSymbols.Set(float64(alarmed))
}

// GetMetricValue reads the current value of a counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}

// collectLabeled returns the value of every child of a single-label vector, by label value
func collectLabeled(vec *prometheus.CounterVec, label string) map[string]float64 {
	values := make(map[string]float64)

	metricChan := make(chan prometheus.Metric, 16)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read %s metric: %v", label, err)
			continue
		}
		for _, l := range metricProto.Label {
			if l.GetName() == label {
				values[l.GetValue()] = metricProto.Counter.GetValue()
			}
		}
	}
	return values
}
