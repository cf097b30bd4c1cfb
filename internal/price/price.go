package price

import (
	"context"
	"strings"
	"sync"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/adshao/go-binance/v2"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTimeout bounds one ticker request
	DefaultTimeout = 10 * time.Second
	// DefaultHistorySize is the number of polled prices kept per symbol
	DefaultHistorySize = 120
)

// ErrNoPrice is returned when Binance answers without a ticker for the symbol
var ErrNoPrice = errors.New("no price data")

// Feed fetches 24h tickers from the Binance REST API and remembers the latest
// snapshot and a bounded price history per symbol.
type Feed struct {
	client      *binance.Client
	timeout     time.Duration
	snapshots   *cache.Cache
	historySize int

	historyMutex sync.RWMutex
	history      map[string][]types.PricePoint
}

// NewFeed creates a feed; snapshots older than snapshotTTL are forgotten
func NewFeed(client *binance.Client, snapshotTTL time.Duration) *Feed {
	return &Feed{
		client:      client,
		timeout:     DefaultTimeout,
		snapshots:   cache.New(snapshotTTL, 2*snapshotTTL),
		historySize: DefaultHistorySize,
		history:     make(map[string][]types.PricePoint),
	}
}

// NewPublicClient returns a client for the public market data endpoints
func NewPublicClient() *binance.Client {
	return binance.NewClient("", "")
}

// GetTicker fetches the 24h ticker of symbol
func (f *Feed) GetTicker(ctx context.Context, symbol string) (types.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stats, err := f.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Ticker{}, errors.Wrapf(err, "could not fetch ticker for %s", symbol)
	}
	if len(stats) == 0 || stats[0] == nil {
		return types.Ticker{}, errors.Wrap(ErrNoPrice, symbol)
	}

	t, err := toTicker(stats[0])
	if err != nil {
		return types.Ticker{}, errors.Wrapf(err, "invalid ticker for %s", symbol)
	}
	t.Symbol = symbol
	t.LastUpdated = time.Now()

	f.snapshots.Set(symbol, t, cache.DefaultExpiration)
	f.record(symbol, t)
	return t, nil
}

// GetPrice returns the last traded price of symbol
func (f *Feed) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	t, err := f.GetTicker(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Price, nil
}

// Last returns the most recent snapshot of symbol, if it has not expired
func (f *Feed) Last(symbol string) (types.Ticker, bool) {
	v, found := f.snapshots.Get(strings.ToUpper(symbol))
	if !found {
		return types.Ticker{}, false
	}
	return v.(types.Ticker), true
}

// History returns a copy of the polled prices of symbol, oldest first
func (f *Feed) History(symbol string) []types.PricePoint {
	f.historyMutex.RLock()
	defer f.historyMutex.RUnlock()

	h := f.history[strings.ToUpper(symbol)]
	out := make([]types.PricePoint, len(h))
	copy(out, h)
	return out
}

func (f *Feed) record(symbol string, t types.Ticker) {
	f.historyMutex.Lock()
	defer f.historyMutex.Unlock()

	h := append(f.history[symbol], types.PricePoint{
		Price:     t.Price.InexactFloat64(),
		Timestamp: t.LastUpdated,
	})
	if len(h) > f.historySize {
		h = h[len(h)-f.historySize:]
	}
	f.history[symbol] = h
}

func toTicker(s *binance.PriceChangeStats) (types.Ticker, error) {
	var t types.Ticker
	fields := []struct {
		dst *decimal.Decimal
		src string
		key string
	}{
		{&t.Price, s.LastPrice, "lastPrice"},
		{&t.PriceChange24h, s.PriceChangePercent, "priceChangePercent"},
		{&t.High24h, s.HighPrice, "highPrice"},
		{&t.Low24h, s.LowPrice, "lowPrice"},
		{&t.Volume, s.Volume, "volume"},
	}
	for _, field := range fields {
		v, err := decimal.NewFromString(field.src)
		if err != nil {
			return t, errors.Wrapf(err, "field %s", field.key)
		}
		*field.dst = v
	}
	return t, nil
}
