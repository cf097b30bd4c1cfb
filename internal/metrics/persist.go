package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Store persists metric values between restarts
type Store interface {
	SaveMetric(metricName, labelKey, labelValue string, value float64) error
	GetMetric(metricName string) (float64, error)
	GetMetricsWithLabels(metricName string) (map[string]map[string]float64, error)
}

const (
	metricAlertsFired         = "alerts_fired"
	metricAlertsSuppressed    = "alerts_suppressed"
	metricNotificationsFailed = "notifications_failed"
	metricPriceFetchErrors    = "price_fetch_errors"
	metricPollingCycles       = "polling_cycles"
)

// Load restores counter values saved by a previous run
func (m *Metrics) Load(s Store) {
	notificationsFailed, err := s.GetMetric(metricNotificationsFailed)
	if err != nil {
		log.Errorf("Failed to load metric %s: %v", metricNotificationsFailed, err)
	}
	pollingCycles, err := s.GetMetric(metricPollingCycles)
	if err != nil {
		log.Errorf("Failed to load metric %s: %v", metricPollingCycles, err)
	}

	m.NotificationsFailed.Add(notificationsFailed)
	m.PollingCycles.Add(pollingCycles)

	loadLabeled(s, metricAlertsFired, m.AlertsFired.WithLabelValues)
	loadLabeled(s, metricAlertsSuppressed, m.AlertsSuppressed.WithLabelValues)
	loadLabeled(s, metricPriceFetchErrors, m.PriceFetchErrors.WithLabelValues)

	log.Debug("Metrics loaded from database.")
}

// Save writes the current counter values to s
func (m *Metrics) Save(s Store) {
	saveMetric(s, metricNotificationsFailed, "", "", GetMetricValue(m.NotificationsFailed))
	saveMetric(s, metricPollingCycles, "", "", GetMetricValue(m.PollingCycles))

	for dir, v := range collectLabeled(m.AlertsFired, "direction") {
		saveMetric(s, metricAlertsFired, "direction", dir, v)
	}
	for dir, v := range collectLabeled(m.AlertsSuppressed, "direction") {
		saveMetric(s, metricAlertsSuppressed, "direction", dir, v)
	}
	for symbol, v := range collectLabeled(m.PriceFetchErrors, "symbol") {
		saveMetric(s, metricPriceFetchErrors, "symbol", symbol, v)
	}

	log.Debug("Metrics saved to database.")
}

func saveMetric(s Store, name, labelKey, labelValue string, value float64) {
	if err := s.SaveMetric(name, labelKey, labelValue, value); err != nil {
		log.Errorf("Failed to save metric %s: %v", name, err)
	}
}

func loadLabeled(s Store, metricName string, child func(...string) prometheus.Counter) {
	labeled, err := s.GetMetricsWithLabels(metricName)
	if err != nil {
		log.Errorf("Failed to load metric %s: %v", metricName, err)
		return
	}
	for _, values := range labeled {
		for labelValue, value := range values {
			child(labelValue).Add(value)
		}
	}
}
