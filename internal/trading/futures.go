package trading

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Position is an open USDⓈ-M futures position
type Position struct {
	Symbol        string
	Amount        decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Leverage      string
}

// Long reports whether the position is long
func (p Position) Long() bool {
	return p.Amount.IsPositive()
}

// Protection configures the stop loss and take profit placed after opening a position.
// A zero percentage skips that order.
type Protection struct {
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal
}

// FuturesOpen sets leverage and opens a market position worth quote at the last price
func (t *Trader) FuturesOpen(ctx context.Context, symbol string, long bool, quote decimal.Decimal, leverage int) (Order, decimal.Decimal, error) {
	symbol = normalizeSymbol(symbol)
	if leverage < 1 {
		leverage = 1
	}

	price, err := t.futuresPrice(ctx, symbol)
	if err != nil {
		return Order{}, decimal.Zero, err
	}
	qty, err := coinQuantity(quote, price)
	if err != nil {
		return Order{}, decimal.Zero, err
	}
	if qty, err = t.roundQuantity(ctx, symbol, qty, true); err != nil {
		return Order{}, decimal.Zero, err
	}

	lctx, cancel := withTimeout(ctx)
	_, err = t.futures.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(lctx)
	cancel()
	if err != nil {
		return Order{}, decimal.Zero, errors.Wrapf(err, "could not set leverage of %s to %dx", symbol, leverage)
	}

	side := futures.SideTypeBuy
	if !long {
		side = futures.SideTypeSell
	}
	o, err := t.futuresMarket(ctx, symbol, side, qty)
	return o, price, err
}

// FuturesClose closes the open position of symbol with a market order
func (t *Trader) FuturesClose(ctx context.Context, symbol string) (Order, error) {
	symbol = normalizeSymbol(symbol)
	positions, err := t.Positions(ctx, symbol)
	if err != nil {
		return Order{}, err
	}
	if len(positions) == 0 {
		return Order{}, errors.Wrap(ErrNoPosition, symbol)
	}

	p := positions[0]
	side := futures.SideTypeSell
	if !p.Long() {
		side = futures.SideTypeBuy
	}
	return t.futuresMarket(ctx, symbol, side, p.Amount.Abs())
}

// ProtectPosition places closePosition STOP_MARKET and TAKE_PROFIT_MARKET orders around price
func (t *Trader) ProtectPosition(ctx context.Context, symbol string, long bool, price decimal.Decimal, p Protection) ([]Order, error) {
	symbol = normalizeSymbol(symbol)
	stopLoss, takeProfit := protectionPrices(price, p.StopLossPct, p.TakeProfitPct, long)

	side := futures.SideTypeSell
	if !long {
		side = futures.SideTypeBuy
	}

	var placed []Order
	if p.StopLossPct.IsPositive() {
		o, err := t.futuresTrigger(ctx, symbol, side, futures.OrderTypeStopMarket, stopLoss)
		if err != nil {
			return placed, errors.Wrap(err, "stop loss")
		}
		placed = append(placed, o)
	}
	if p.TakeProfitPct.IsPositive() {
		o, err := t.futuresTrigger(ctx, symbol, side, futures.OrderTypeTakeProfitMarket, takeProfit)
		if err != nil {
			return placed, errors.Wrap(err, "take profit")
		}
		placed = append(placed, o)
	}
	return placed, nil
}

// Positions returns the non-empty futures positions, of symbol only when it is not empty
func (t *Trader) Positions(ctx context.Context, symbol string) ([]Position, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	svc := t.futures.NewGetPositionRiskService()
	if symbol != "" {
		svc = svc.Symbol(normalizeSymbol(symbol))
	}
	risks, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch positions")
	}

	var out []Position
	for _, r := range risks {
		amount, err := decimal.NewFromString(r.PositionAmt)
		if err != nil {
			return nil, errors.Wrapf(err, "position amount of %s", r.Symbol)
		}
		if amount.IsZero() {
			continue
		}
		out = append(out, Position{
			Symbol:        r.Symbol,
			Amount:        amount,
			EntryPrice:    parseOrZero(r.EntryPrice),
			MarkPrice:     parseOrZero(r.MarkPrice),
			UnrealizedPnL: parseOrZero(r.UnRealizedProfit),
			Leverage:      r.Leverage,
		})
	}
	return out, nil
}

func (t *Trader) futuresPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	stats, err := t.futures.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "could not fetch futures price of %s", symbol)
	}
	if len(stats) == 0 {
		return decimal.Zero, errors.Errorf("empty 24h stats: %s", symbol)
	}
	return decimal.NewFromString(stats[0].LastPrice)
}

func (t *Trader) futuresMarket(ctx context.Context, symbol string, side futures.SideType, qty decimal.Decimal) (Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := t.futures.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(qty.String()).
		Do(ctx)
	if err != nil {
		return Order{}, errors.Wrapf(err, "futures market %s %s", side, symbol)
	}
	return logOrder(fromFuturesResponse(res)), nil
}

func (t *Trader) futuresTrigger(ctx context.Context, symbol string, side futures.SideType, typ futures.OrderType, stop decimal.Decimal) (Order, error) {
	stop, err := t.roundPrice(ctx, symbol, stop, true)
	if err != nil {
		return Order{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := t.futures.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(typ).
		StopPrice(stop.String()).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		return Order{}, errors.Wrapf(err, "futures %s %s at %s", typ, symbol, stop)
	}
	log.WithField("symbol", symbol).Infof("🛡 %s set at %s", typ, stop)
	return logOrder(fromFuturesResponse(res)), nil
}

func fromFuturesResponse(res *futures.CreateOrderResponse) Order {
	return Order{
		Symbol:   res.Symbol,
		OrderID:  res.OrderID,
		Side:     string(res.Side),
		Type:     string(res.Type),
		Status:   string(res.Status),
		Price:    res.Price,
		Quantity: res.OrigQuantity,
		Time:     time.UnixMilli(res.UpdateTime),
	}
}

func parseOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
