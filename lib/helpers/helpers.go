package helpers

import (
	"fmt"
	"strings"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display modes of the status line
const (
	ModeCompact    = "compact"
	ModeFull       = "full"
	ModeSymbolOnly = "symbol_only"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPriceUS formats a price with thousand separators and a precision that depends on its size
func FormatPriceUS(price decimal.Decimal) string {
	decimals := 6
	switch {
	case price.GreaterThanOrEqual(decimal.NewFromInt(1)):
		decimals = 2
	case price.GreaterThanOrEqual(decimal.RequireFromString("0.0001")):
		decimals = 4
	}

	p := message.NewPrinter(language.English)
	return "$" + p.Sprintf("%.*f", decimals, price.InexactFloat64())
}

// FormatPriceShort abbreviates large prices, $1.2M, $67K
func FormatPriceShort(price decimal.Decimal) string {
	v := price.InexactFloat64()
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1000:
		return fmt.Sprintf("$%.0fK", v/1000)
	case v >= 1:
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

// FormatPercent formats a percentage change with an explicit sign
func FormatPercent(change decimal.Decimal) string {
	switch change.Sign() {
	case 1:
		return "+" + change.StringFixed(2) + "%"
	case -1:
		return change.StringFixed(2) + "%"
	}
	return "0.00%"
}

// ChangeEmoji marks a percentage change as up, down or flat
func ChangeEmoji(change decimal.Decimal) string {
	switch change.Sign() {
	case 1:
		return "🟢"
	case -1:
		return "🔴"
	}
	return "⚪"
}

// FormatVolume abbreviates a traded volume, 1.23B, 4.50M, 7.80K
func FormatVolume(volume decimal.Decimal) string {
	v := volume.InexactFloat64()
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1000:
		return fmt.Sprintf("%.2fK", v/1000)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatTitle renders the short status title of a ticker in the given display mode
func FormatTitle(mode, glyph string, t types.Ticker) string {
	switch mode {
	case ModeSymbolOnly:
		return glyph
	case ModeFull:
		return fmt.Sprintf("%s %s %s", glyph, FormatPriceUS(t.Price), FormatPercent(t.PriceChange24h))
	}
	return fmt.Sprintf("%s %s", glyph, FormatPriceUS(t.Price))
}

// FormatDetail renders the one-line detail of a ticker
func FormatDetail(glyph, name string, t types.Ticker, now time.Time) string {
	updated := humanize.RelTime(t.LastUpdated, now, "ago", "from now")
	return fmt.Sprintf("📊 %s %s | 💰 %s | %s %s | ⬆️ %s ⬇️ %s | 📈 %s | 🔄 %s",
		glyph, name,
		FormatPriceUS(t.Price),
		ChangeEmoji(t.PriceChange24h), FormatPercent(t.PriceChange24h),
		FormatPriceUS(t.High24h), FormatPriceUS(t.Low24h),
		FormatVolume(t.Volume),
		updated,
	)
}
