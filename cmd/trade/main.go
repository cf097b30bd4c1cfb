package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"binance-price-monitor/config"
	"binance-price-monitor/internal/trading"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: trade -action <action> [flags]

actions:
  spot-market-buy   spend -amount quote on -symbol
  spot-limit-buy    buy -amount worth of -symbol at -price
  spot-market-sell  sell the whole free balance of -symbol
  spot-limit-sell   sell -amount worth of -symbol at -price
  futures-long      open a long worth -amount with -leverage
  futures-short     open a short worth -amount with -leverage
  futures-close     close the open position of -symbol
  balances          list spot balances
  positions         list open futures positions
  orders            list recent orders of -symbol

flags:
`

type options struct {
	action   string
	symbol   string
	amount   string
	price    string
	leverage int
	stopLoss string
	profit   string
	limit    int
	yes      bool
}

func main() {
	var o options
	flag.StringVar(&o.action, "action", "", "what to do")
	flag.StringVar(&o.symbol, "symbol", "BTCUSDT", "trading pair")
	flag.StringVar(&o.amount, "amount", "10", "order size in quote asset, e.g. USDT")
	flag.StringVar(&o.price, "price", "", "limit price")
	flag.IntVar(&o.leverage, "leverage", 1, "futures leverage")
	flag.StringVar(&o.stopLoss, "sl", "0", "futures stop loss percentage, 0 to skip")
	flag.StringVar(&o.profit, "tp", "0", "futures take profit percentage, 0 to skip")
	flag.IntVar(&o.limit, "limit", 5, "number of orders to list")
	flag.BoolVar(&o.yes, "yes", false, "do not ask for confirmation")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	config.InitConfig()
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	trader, err := trading.New(trading.Config{
		APIKey:    settings.BinanceAPI.APIKey,
		APISecret: settings.BinanceAPI.APISecret,
		Testnet:   settings.BinanceAPI.Testnet,
		Enabled:   settings.BinanceAPI.TradingEnabled,
	})
	if err != nil {
		log.Fatalf("❌ %v: set binance_api.trading_enabled and the API keys", err)
	}
	if settings.BinanceAPI.Testnet {
		fmt.Println("🧪 Using the Binance testnet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, trader, o); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(ctx context.Context, t *trading.Trader, o options) error {
	amount, err := decimal.NewFromString(o.amount)
	if err != nil {
		return errors.Wrap(err, "invalid -amount")
	}

	switch o.action {
	case "spot-market-buy":
		if !confirm(o, fmt.Sprintf("Spot market buy %s for %s", o.symbol, amount)) {
			return nil
		}
		return printOrder(t.SpotMarketBuy(ctx, o.symbol, amount))
	case "spot-limit-buy":
		price, err := limitPrice(o)
		if err != nil {
			return err
		}
		if !confirm(o, fmt.Sprintf("Spot limit buy %s for %s at %s", o.symbol, amount, price)) {
			return nil
		}
		return printOrder(t.SpotLimitBuy(ctx, o.symbol, amount, price))
	case "spot-market-sell":
		if !confirm(o, fmt.Sprintf("Spot market sell the whole %s balance", o.symbol)) {
			return nil
		}
		return printOrder(t.SpotMarketSell(ctx, o.symbol))
	case "spot-limit-sell":
		price, err := limitPrice(o)
		if err != nil {
			return err
		}
		if !confirm(o, fmt.Sprintf("Spot limit sell %s worth %s at %s", o.symbol, amount, price)) {
			return nil
		}
		return printOrder(t.SpotLimitSell(ctx, o.symbol, amount, price))
	case "futures-long", "futures-short":
		return openFutures(ctx, t, o, amount, o.action == "futures-long")
	case "futures-close":
		if !confirm(o, fmt.Sprintf("Close the %s futures position", o.symbol)) {
			return nil
		}
		return printOrder(t.FuturesClose(ctx, o.symbol))
	case "balances":
		balances, err := t.Balances(ctx)
		if err != nil {
			return err
		}
		fmt.Println("💰 Account balances")
		for _, b := range balances {
			fmt.Printf("  %-8s free %s locked %s\n", b.Asset, b.Free, b.Locked)
		}
		return nil
	case "positions":
		positions, err := t.Positions(ctx, "")
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("No open positions")
		}
		for _, p := range positions {
			side := "SHORT"
			if p.Long() {
				side = "LONG"
			}
			fmt.Printf("  %s %s %s @ %s mark %s pnl %s (%sx)\n", p.Symbol, side, p.Amount.Abs(), p.EntryPrice, p.MarkPrice, p.UnrealizedPnL.StringFixed(2), p.Leverage)
		}
		return nil
	case "orders":
		spot, fut, err := t.RecentOrders(ctx, o.symbol, o.limit)
		if err != nil {
			return err
		}
		fmt.Println("📋 Spot orders")
		printOrders(spot)
		fmt.Println("📋 Futures orders")
		printOrders(fut)
		return nil
	case "":
		flag.Usage()
		os.Exit(2)
	}
	return errors.Errorf("unknown action %q", o.action)
}

func openFutures(ctx context.Context, t *trading.Trader, o options, amount decimal.Decimal, long bool) error {
	protection, err := parseProtection(o.stopLoss, o.profit)
	if err != nil {
		return err
	}

	side := "short"
	if long {
		side = "long"
	}
	if !confirm(o, fmt.Sprintf("Open a %dx %s on %s worth %s", o.leverage, side, o.symbol, amount)) {
		return nil
	}

	order, price, err := t.FuturesOpen(ctx, o.symbol, long, amount, o.leverage)
	if err := printOrder(order, err); err != nil {
		return err
	}

	orders, err := t.ProtectPosition(ctx, o.symbol, long, price, protection)
	for _, order := range orders {
		fmt.Printf("🛡 %s\n", order)
	}
	return err
}

// parseProtection validates -sl and -tp before any order is placed
func parseProtection(stopLoss, takeProfit string) (trading.Protection, error) {
	var p trading.Protection
	var err error
	if p.StopLossPct, err = decimal.NewFromString(stopLoss); err != nil {
		return p, errors.Wrap(err, "invalid -sl")
	}
	if p.TakeProfitPct, err = decimal.NewFromString(takeProfit); err != nil {
		return p, errors.Wrap(err, "invalid -tp")
	}
	if p.StopLossPct.IsNegative() {
		return p, errors.Errorf("-sl must not be negative, got %s", stopLoss)
	}
	if p.TakeProfitPct.IsNegative() {
		return p, errors.Errorf("-tp must not be negative, got %s", takeProfit)
	}
	return p, nil
}

func limitPrice(o options) (decimal.Decimal, error) {
	if o.price == "" {
		return decimal.Zero, errors.New("-price is required for limit orders")
	}
	price, err := decimal.NewFromString(o.price)
	return price, errors.Wrap(err, "invalid -price")
}

func confirm(o options, question string) bool {
	if o.yes {
		return true
	}
	fmt.Printf("%s? [y/N] ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func printOrder(o trading.Order, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("✅ %s\n", o)
	return nil
}

func printOrders(orders []trading.Order) {
	if len(orders) == 0 {
		fmt.Println("  none")
	}
	for _, o := range orders {
		fmt.Printf("  %s (%s)\n", o, humanize.Time(o.Time))
	}
}
