package helpers

import (
	"strings"
	"testing"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestFormatPriceUS(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"67234.561", "$67,234.56"},
		{"123.456", "$123.46"},
		{"0.12346", "$0.1235"},
		{"0.0000123", "$0.000012"},
	}
	for _, tt := range tests {
		if got := FormatPriceUS(d(tt.price)); got != tt.want {
			t.Errorf("FormatPriceUS(%s) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestFormatPriceShort(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"1250000", "$1.2M"},
		{"67234", "$67K"},
		{"12.6", "$13"},
		{"0.5", "$0.5000"},
	}
	for _, tt := range tests {
		if got := FormatPriceShort(d(tt.price)); got != tt.want {
			t.Errorf("FormatPriceShort(%s) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		change string
		want   string
		emoji  string
	}{
		{"1.234", "+1.23%", "🟢"},
		{"-0.5", "-0.50%", "🔴"},
		{"0", "0.00%", "⚪"},
	}
	for _, tt := range tests {
		if got := FormatPercent(d(tt.change)); got != tt.want {
			t.Errorf("FormatPercent(%s) = %q, want %q", tt.change, got, tt.want)
		}
		if got := ChangeEmoji(d(tt.change)); got != tt.emoji {
			t.Errorf("ChangeEmoji(%s) = %q, want %q", tt.change, got, tt.emoji)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		volume string
		want   string
	}{
		{"1234567890", "1.23B"},
		{"4500000", "4.50M"},
		{"7800", "7.80K"},
		{"12.346", "12.35"},
	}
	for _, tt := range tests {
		if got := FormatVolume(d(tt.volume)); got != tt.want {
			t.Errorf("FormatVolume(%s) = %q, want %q", tt.volume, got, tt.want)
		}
	}
}

func TestFormatTitle(t *testing.T) {
	ticker := types.Ticker{Symbol: "BTCUSDT", Price: d("67234.56"), PriceChange24h: d("-2.5")}
	tests := []struct {
		mode string
		want string
	}{
		{ModeSymbolOnly, "₿"},
		{ModeCompact, "₿ $67,234.56"},
		{ModeFull, "₿ $67,234.56 -2.50%"},
		{"unknown", "₿ $67,234.56"},
	}
	for _, tt := range tests {
		if got := FormatTitle(tt.mode, "₿", ticker); got != tt.want {
			t.Errorf("FormatTitle(%s) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestFormatDetail(t *testing.T) {
	now := time.Now()
	ticker := types.Ticker{
		Symbol:         "ETHUSDT",
		Price:          d("3500"),
		PriceChange24h: d("1"),
		High24h:        d("3600"),
		Low24h:         d("3400"),
		Volume:         d("250000"),
		LastUpdated:    now.Add(-5 * time.Second),
	}
	got := FormatDetail("Ξ", "Ethereum", ticker, now)
	for _, part := range []string{"Ξ Ethereum", "$3,500.00", "🟢 +1.00%", "250.00K", "5 seconds ago"} {
		if !strings.Contains(got, part) {
			t.Errorf("FormatDetail() = %q, missing %q", got, part)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	if got := EscapeMarkdownV2("$1.5 (BTC-USDT)!"); got != `$1\.5 \(BTC\-USDT\)\!` {
		t.Errorf("EscapeMarkdownV2 = %q", got)
	}
}
