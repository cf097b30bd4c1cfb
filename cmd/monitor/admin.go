package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"binance-price-monitor/internal/alert"
	"binance-price-monitor/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// adminFlags are one-shot alert management commands; the monitor exits after running them
type adminFlags struct {
	setAlert         string
	high             string
	low              string
	removeAlert      string
	cooldown         int
	listAlerts       bool
	checkNow         bool
	testNotification bool
}

func (f adminFlags) requested() bool {
	return f.setAlert != "" || f.removeAlert != "" || f.cooldown >= 0 ||
		f.listAlerts || f.checkNow || f.testNotification
}

// runAdmin applies edits first, then sends and checks, and lists last so the listing shows the result
func runAdmin(ctx context.Context, svc *alert.Service, f adminFlags, out io.Writer) error {
	if f.setAlert != "" {
		t, err := parseThreshold(f.setAlert, f.high, f.low)
		if err != nil {
			return err
		}
		if err := svc.SetThreshold(t); err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Alert for %s set\n", t.Symbol)
	}

	if f.removeAlert != "" {
		symbol := strings.ToUpper(strings.TrimSpace(f.removeAlert))
		if err := svc.RemoveThreshold(symbol); err != nil {
			return err
		}
		fmt.Fprintf(out, "🗑 Alert for %s removed\n", symbol)
	}

	if f.cooldown >= 0 {
		if err := svc.SetCooldown(time.Duration(f.cooldown) * time.Second); err != nil {
			return err
		}
		fmt.Fprintf(out, "⏳ Alert cooldown set to %s\n", svc.Cooldown())
	}

	if f.testNotification {
		if err := svc.TestNotification(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "✅ Test notification sent")
	}

	if f.checkNow {
		svc.CheckNow(ctx)
	}

	if f.listAlerts || f.checkNow {
		printThresholds(out, svc)
	}
	return nil
}

func parseThreshold(symbol, high, low string) (types.AlertThreshold, error) {
	t := types.AlertThreshold{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}

	var err error
	if t.High, err = parseBound("-high", high); err != nil {
		return t, err
	}
	if t.Low, err = parseBound("-low", low); err != nil {
		return t, err
	}
	if t.Empty() {
		return t, errors.Errorf("-set-alert %s needs -high or -low; use -remove-alert to drop it", t.Symbol)
	}
	if t.High != nil && t.Low != nil && !t.High.GreaterThan(*t.Low) {
		return t, errors.Errorf("-high %s must be above -low %s", t.High, t.Low)
	}
	return t, nil
}

func parseBound(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	if !d.IsPositive() {
		return nil, errors.Errorf("%s must be positive, got %s", name, value)
	}
	return &d, nil
}

func printThresholds(out io.Writer, svc *alert.Service) {
	thresholds := svc.Thresholds()
	fmt.Fprintf(out, "🔔 Alert thresholds (cooldown %s)\n", svc.Cooldown())
	if len(thresholds) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, t := range thresholds {
		line := fmt.Sprintf("  %-10s high %-12s low %-12s", t.Symbol, bound(t.High), bound(t.Low))
		if svc.Alarmed(t.Symbol) {
			line += " 🚨"
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

func bound(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
