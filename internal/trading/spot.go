package trading

import (
	"context"
	"time"

	"binance-price-monitor/internal/coins"

	"github.com/adshao/go-binance/v2"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Balance is a non-zero asset balance of the spot account
type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// SpotMarketBuy spends quote (e.g. USDT) on symbol at market price
func (t *Trader) SpotMarketBuy(ctx context.Context, symbol string, quote decimal.Decimal) (Order, error) {
	if !quote.IsPositive() {
		return Order{}, errors.Errorf("amount must be positive, got %s", quote)
	}
	symbol = normalizeSymbol(symbol)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := t.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(quote.String()).
		Do(ctx)
	if err != nil {
		return Order{}, errors.Wrapf(err, "spot market buy %s", symbol)
	}
	return logOrder(fromSpotResponse(res)), nil
}

// SpotLimitBuy places a GTC limit buy for as much of symbol as quote pays at price
func (t *Trader) SpotLimitBuy(ctx context.Context, symbol string, quote, price decimal.Decimal) (Order, error) {
	symbol = normalizeSymbol(symbol)
	qty, err := coinQuantity(quote, price)
	if err != nil {
		return Order{}, err
	}
	return t.spotLimit(ctx, symbol, binance.SideTypeBuy, qty, price)
}

// SpotMarketSell sells the whole free balance of the base asset of symbol
func (t *Trader) SpotMarketSell(ctx context.Context, symbol string) (Order, error) {
	symbol = normalizeSymbol(symbol)
	balance, err := t.freeBalance(ctx, coins.BaseAsset(symbol))
	if err != nil {
		return Order{}, err
	}

	qty, err := t.roundQuantity(ctx, symbol, balance, false)
	if err != nil {
		return Order{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := t.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(qty.String()).
		Do(ctx)
	if err != nil {
		return Order{}, errors.Wrapf(err, "spot market sell %s", symbol)
	}
	return logOrder(fromSpotResponse(res)), nil
}

// SpotLimitSell places a GTC limit sell worth quote at price, capped by the free balance
func (t *Trader) SpotLimitSell(ctx context.Context, symbol string, quote, price decimal.Decimal) (Order, error) {
	symbol = normalizeSymbol(symbol)
	balance, err := t.freeBalance(ctx, coins.BaseAsset(symbol))
	if err != nil {
		return Order{}, err
	}
	qty, err := limitSellQuantity(balance, quote, price)
	if err != nil {
		return Order{}, err
	}
	return t.spotLimit(ctx, symbol, binance.SideTypeSell, qty, price)
}

func (t *Trader) spotLimit(ctx context.Context, symbol string, side binance.SideType, qty, price decimal.Decimal) (Order, error) {
	qty, err := t.roundQuantity(ctx, symbol, qty, false)
	if err != nil {
		return Order{}, err
	}
	if price, err = t.roundPrice(ctx, symbol, price, false); err != nil {
		return Order{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := t.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Quantity(qty.String()).
		Price(price.String()).
		Do(ctx)
	if err != nil {
		return Order{}, errors.Wrapf(err, "spot limit %s %s", side, symbol)
	}
	return logOrder(fromSpotResponse(res)), nil
}

// Balances returns the spot balances that are not zero
func (t *Trader) Balances(ctx context.Context) ([]Balance, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	account, err := t.spot.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch account")
	}

	var out []Balance
	for _, b := range account.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %s", b.Asset)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %s", b.Asset)
		}
		if free.IsZero() && locked.IsZero() {
			continue
		}
		out = append(out, Balance{Asset: b.Asset, Free: free, Locked: locked})
	}
	return out, nil
}

// RecentOrders returns the last limit spot orders and futures orders of symbol
func (t *Trader) RecentOrders(ctx context.Context, symbol string, limit int) (spot, fut []Order, err error) {
	symbol = normalizeSymbol(symbol)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	spotOrders, err := t.spot.NewListOrdersService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not list spot orders of %s", symbol)
	}
	for _, o := range spotOrders {
		spot = append(spot, Order{
			Symbol:   o.Symbol,
			OrderID:  o.OrderID,
			Side:     string(o.Side),
			Type:     string(o.Type),
			Status:   string(o.Status),
			Price:    o.Price,
			Quantity: o.OrigQuantity,
			Time:     time.UnixMilli(o.Time),
		})
	}

	futOrders, err := t.futures.NewListOrdersService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return spot, nil, errors.Wrapf(err, "could not list futures orders of %s", symbol)
	}
	for _, o := range futOrders {
		fut = append(fut, Order{
			Symbol:   o.Symbol,
			OrderID:  o.OrderID,
			Side:     string(o.Side),
			Type:     string(o.Type),
			Status:   string(o.Status),
			Price:    o.Price,
			Quantity: o.OrigQuantity,
			Time:     time.UnixMilli(o.Time),
		})
	}
	return spot, fut, nil
}

func (t *Trader) freeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	balances, err := t.Balances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range balances {
		if b.Asset == asset && b.Free.IsPositive() {
			return b.Free, nil
		}
	}
	return decimal.Zero, errors.Wrap(ErrNoBalance, asset)
}

// roundQuantity truncates qty to the LOT_SIZE step of symbol on the spot or futures market
func (t *Trader) roundQuantity(ctx context.Context, symbol string, qty decimal.Decimal, fut bool) (decimal.Decimal, error) {
	f, err := t.filters(ctx, symbol, fut)
	if err != nil {
		return decimal.Zero, err
	}
	rounded := roundStep(qty, f.step)
	if !rounded.IsPositive() {
		return decimal.Zero, errors.Errorf("quantity %s of %s is below the lot step %s", qty, symbol, f.step)
	}
	return rounded, nil
}

// roundPrice truncates price to the PRICE_FILTER tick of symbol
func (t *Trader) roundPrice(ctx context.Context, symbol string, price decimal.Decimal, fut bool) (decimal.Decimal, error) {
	f, err := t.filters(ctx, symbol, fut)
	if err != nil {
		return decimal.Zero, err
	}
	return roundStep(price, f.tick), nil
}

type symbolFilters struct {
	step decimal.Decimal
	tick decimal.Decimal
}

func (t *Trader) filters(ctx context.Context, symbol string, fut bool) (symbolFilters, error) {
	key := "spot:" + symbol
	if fut {
		key = "futures:" + symbol
	}
	if v, found := t.steps.Get(key); found {
		return v.(symbolFilters), nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var step, tick string
	if fut {
		info, err := t.futures.NewExchangeInfoService().Do(ctx)
		if err != nil {
			return symbolFilters{}, errors.Wrap(err, "futures exchange info")
		}
		for _, s := range info.Symbols {
			if s.Symbol != symbol {
				continue
			}
			if f := s.LotSizeFilter(); f != nil {
				step = f.StepSize
			}
			if f := s.PriceFilter(); f != nil {
				tick = f.TickSize
			}
			break
		}
	} else {
		info, err := t.spot.NewExchangeInfoService().Symbol(symbol).Do(ctx)
		if err != nil {
			return symbolFilters{}, errors.Wrap(err, "spot exchange info")
		}
		for _, s := range info.Symbols {
			if s.Symbol != symbol {
				continue
			}
			if f := s.LotSizeFilter(); f != nil {
				step = f.StepSize
			}
			if f := s.PriceFilter(); f != nil {
				tick = f.TickSize
			}
			break
		}
	}

	var f symbolFilters
	var err error
	if f.step, err = parseStep(step); err != nil {
		return symbolFilters{}, errors.Wrapf(err, "step size of %s", symbol)
	}
	if f.tick, err = parseStep(tick); err != nil {
		return symbolFilters{}, errors.Wrapf(err, "tick size of %s", symbol)
	}
	t.steps.Set(key, f, cache.DefaultExpiration)
	return f, nil
}

func parseStep(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func fromSpotResponse(res *binance.CreateOrderResponse) Order {
	return Order{
		Symbol:   res.Symbol,
		OrderID:  res.OrderID,
		Side:     string(res.Side),
		Type:     string(res.Type),
		Status:   string(res.Status),
		Price:    res.Price,
		Quantity: res.OrigQuantity,
		Time:     time.UnixMilli(res.TransactTime),
	}
}

func logOrder(o Order) Order {
	log.WithFields(log.Fields{"symbol": o.Symbol, "order_id": o.OrderID}).Infof("✅ Order placed: %s", o)
	return o
}
