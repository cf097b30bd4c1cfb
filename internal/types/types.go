package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a threshold an alert watches
type Direction string

const (
	DirectionHigh Direction = "high"
	DirectionLow  Direction = "low"
)

// AlertThreshold holds the configured price boundaries of one symbol
type AlertThreshold struct {
	Symbol string           `json:"symbol"`
	High   *decimal.Decimal `json:"high,omitempty"`
	Low    *decimal.Decimal `json:"low,omitempty"`
}

// Empty reports whether neither boundary is set
func (t AlertThreshold) Empty() bool {
	return t.High == nil && t.Low == nil
}

// AlertState is the runtime state of one (symbol, direction) pair
type AlertState struct {
	Triggered     bool       `json:"triggered"`
	LastAlertTime *time.Time `json:"last_alert_time,omitempty"`
}

// AlertEvent is emitted when a threshold crossing is allowed to notify
type AlertEvent struct {
	Symbol    string          `json:"symbol"`
	Direction Direction       `json:"direction"`
	Price     decimal.Decimal `json:"price"`
	Threshold decimal.Decimal `json:"threshold"`
	Time      time.Time       `json:"time"`
}

// AlertConfig is what a ConfigStore loads
type AlertConfig struct {
	Thresholds map[string]AlertThreshold
	Cooldown   time.Duration
}

// Ticker is a 24h statistics snapshot of a trading pair
type Ticker struct {
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	PriceChange24h decimal.Decimal `json:"price_change_percent"`
	High24h        decimal.Decimal `json:"high_price"`
	Low24h         decimal.Decimal `json:"low_price"`
	Volume         decimal.Decimal `json:"volume"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// PricePoint is one polled price kept for charts
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
