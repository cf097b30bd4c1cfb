package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const requestTimeout = 10 * time.Second

var (
	// ErrTradingDisabled is returned when trading is switched off or API keys are missing
	ErrTradingDisabled = errors.New("trading is disabled")
	// ErrNoBalance is returned when a sell finds no free balance of the base asset
	ErrNoBalance = errors.New("no free balance")
	// ErrNoPosition is returned when there is no open futures position to close
	ErrNoPosition = errors.New("no open position")
)

// Config holds the Binance credentials used for trading
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Enabled   bool
}

// Order is the summary of a placed or listed order
type Order struct {
	Symbol   string
	OrderID  int64
	Side     string
	Type     string
	Status   string
	Price    string
	Quantity string
	Time     time.Time
}

func (o Order) String() string {
	return fmt.Sprintf("#%d %s %s %s qty=%s price=%s %s", o.OrderID, o.Symbol, o.Side, o.Type, o.Quantity, o.Price, o.Status)
}

// Trader places spot and USDⓈ-M futures orders
type Trader struct {
	spot    *binance.Client
	futures *futures.Client
	// lot and price filters per market and symbol
	steps *cache.Cache
}

// New creates a trader; it fails with ErrTradingDisabled unless trading is enabled and keys are set.
// Testnet switches both the spot and futures clients to the Binance testnet.
func New(c Config) (*Trader, error) {
	if !c.Enabled || c.APIKey == "" || c.APISecret == "" {
		return nil, ErrTradingDisabled
	}

	binance.UseTestnet = c.Testnet
	futures.UseTestnet = c.Testnet

	return &Trader{
		spot:    binance.NewClient(c.APIKey, c.APISecret),
		futures: futures.NewClient(c.APIKey, c.APISecret),
		steps:   cache.New(time.Hour, 2*time.Hour),
	}, nil
}

// coinQuantity converts a quote amount into a base asset quantity at price
func coinQuantity(quote, price decimal.Decimal) (decimal.Decimal, error) {
	if !quote.IsPositive() {
		return decimal.Zero, errors.Errorf("amount must be positive, got %s", quote)
	}
	if !price.IsPositive() {
		return decimal.Zero, errors.Errorf("price must be positive, got %s", price)
	}
	return quote.Div(price), nil
}

// roundStep truncates qty down to a multiple of step; a zero step leaves qty as is
func roundStep(qty, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}

// limitSellQuantity sells what quote buys at price, capped by the free balance
func limitSellQuantity(balance, quote, price decimal.Decimal) (decimal.Decimal, error) {
	qty, err := coinQuantity(quote, price)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Min(balance, qty), nil
}

// protectionPrices returns the stop loss and take profit trigger prices around price.
// A long position loses below price, a short one above it.
func protectionPrices(price, stopLossPct, takeProfitPct decimal.Decimal, long bool) (stopLoss, takeProfit decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	sl := stopLossPct.Div(hundred)
	tp := takeProfitPct.Div(hundred)
	one := decimal.NewFromInt(1)
	if long {
		return price.Mul(one.Sub(sl)), price.Mul(one.Add(tp))
	}
	return price.Mul(one.Add(sl)), price.Mul(one.Sub(tp))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}
