package alert

import (
	"sort"
	"strings"
	"time"

	"binance-price-monitor/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned by Evaluate for an empty symbol or a non-positive price
var ErrInvalidInput = errors.New("invalid alert input")

type stateKey struct {
	symbol    string
	direction types.Direction
}

// Engine decides when a price crossing turns into a notification.
//
// A direction fires once when price reaches its threshold and stays quiet until the
// price crosses back (hysteresis). Independently, two notifications of the same
// (symbol, direction) are never closer than the cooldown.
//
// Engine is not safe for concurrent use; Service serializes access to it.
// Evaluate expects non-decreasing now values per symbol.
type Engine struct {
	cooldown   time.Duration
	thresholds map[string]types.AlertThreshold
	states     map[stateKey]*types.AlertState
}

// NewEngine creates an engine with the given cooldown and no thresholds
func NewEngine(cooldown time.Duration) *Engine {
	return &Engine{
		cooldown:   cooldown,
		thresholds: make(map[string]types.AlertThreshold),
		states:     make(map[stateKey]*types.AlertState),
	}
}

// Cooldown returns the minimum gap between two notifications of one direction
func (e *Engine) Cooldown() time.Duration {
	return e.cooldown
}

// SetCooldown changes the cooldown for subsequent evaluations
func (e *Engine) SetCooldown(d time.Duration) {
	e.cooldown = d
}

// SetThreshold replaces the thresholds of a symbol and re-arms both directions.
// Cooldown history is kept.
func (e *Engine) SetThreshold(t types.AlertThreshold) {
	t.Symbol = normalizeSymbol(t.Symbol)
	if t.Empty() {
		e.RemoveThreshold(t.Symbol)
		return
	}
	e.thresholds[t.Symbol] = t

	for _, dir := range []types.Direction{types.DirectionHigh, types.DirectionLow} {
		if st, ok := e.states[stateKey{t.Symbol, dir}]; ok {
			st.Triggered = false
		}
	}
}

// RemoveThreshold drops the thresholds of a symbol
func (e *Engine) RemoveThreshold(symbol string) {
	symbol = normalizeSymbol(symbol)
	delete(e.thresholds, symbol)
	for _, dir := range []types.Direction{types.DirectionHigh, types.DirectionLow} {
		if st, ok := e.states[stateKey{symbol, dir}]; ok {
			st.Triggered = false
		}
	}
}

// Threshold returns the configured thresholds of a symbol
func (e *Engine) Threshold(symbol string) (types.AlertThreshold, bool) {
	t, ok := e.thresholds[normalizeSymbol(symbol)]
	return t, ok
}

// Thresholds returns a copy of all configured thresholds
func (e *Engine) Thresholds() map[string]types.AlertThreshold {
	out := make(map[string]types.AlertThreshold, len(e.thresholds))
	for k, v := range e.thresholds {
		out[k] = v
	}
	return out
}

// Symbols lists the symbols that have at least one threshold, sorted
func (e *Engine) Symbols() []string {
	symbols := make([]string, 0, len(e.thresholds))
	for s := range e.thresholds {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// State returns a copy of the state of one direction, if it was ever evaluated
func (e *Engine) State(symbol string, dir types.Direction) (types.AlertState, bool) {
	st, ok := e.states[stateKey{normalizeSymbol(symbol), dir}]
	if !ok {
		return types.AlertState{}, false
	}
	return *st, true
}

// Alarmed reports whether any direction of the symbol is currently triggered
func (e *Engine) Alarmed(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	for _, dir := range []types.Direction{types.DirectionHigh, types.DirectionLow} {
		if st, ok := e.states[stateKey{symbol, dir}]; ok && st.Triggered {
			return true
		}
	}
	return false
}

// Evaluate checks price against the thresholds of symbol and returns the events
// that should be notified, high before low.
func (e *Engine) Evaluate(symbol string, price decimal.Decimal, now time.Time) ([]types.AlertEvent, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(ErrInvalidInput, "empty symbol")
	}
	if !price.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidInput, "price %s for %s", price, symbol)
	}

	t, ok := e.thresholds[symbol]
	if !ok {
		return nil, nil
	}

	var events []types.AlertEvent
	if t.High != nil {
		if ev, fired := e.evaluateDirection(symbol, types.DirectionHigh, price, *t.High, price.GreaterThanOrEqual(*t.High), now); fired {
			events = append(events, ev)
		}
	}
	if t.Low != nil {
		if ev, fired := e.evaluateDirection(symbol, types.DirectionLow, price, *t.Low, price.LessThanOrEqual(*t.Low), now); fired {
			events = append(events, ev)
		}
	}
	return events, nil
}

// Suppressed reports whether the direction is on the alarm side but held back by cooldown
func (e *Engine) Suppressed(symbol string, dir types.Direction, price decimal.Decimal, now time.Time) bool {
	symbol = normalizeSymbol(symbol)
	t, ok := e.thresholds[symbol]
	if !ok {
		return false
	}
	st, ok := e.states[stateKey{symbol, dir}]
	if !ok || st.Triggered {
		return false
	}
	switch {
	case dir == types.DirectionHigh && t.High != nil && price.GreaterThanOrEqual(*t.High):
	case dir == types.DirectionLow && t.Low != nil && price.LessThanOrEqual(*t.Low):
	default:
		return false
	}
	return !e.cooledDown(st, now)
}

func (e *Engine) evaluateDirection(symbol string, dir types.Direction, price, threshold decimal.Decimal, alarm bool, now time.Time) (types.AlertEvent, bool) {
	st := e.state(symbol, dir)

	if !alarm {
		st.Triggered = false
		return types.AlertEvent{}, false
	}
	if st.Triggered || !e.cooledDown(st, now) {
		return types.AlertEvent{}, false
	}

	st.Triggered = true
	at := now
	st.LastAlertTime = &at

	return types.AlertEvent{
		Symbol:    symbol,
		Direction: dir,
		Price:     price,
		Threshold: threshold,
		Time:      now,
	}, true
}

func (e *Engine) cooledDown(st *types.AlertState, now time.Time) bool {
	return st.LastAlertTime == nil || now.Sub(*st.LastAlertTime) >= e.cooldown
}

func (e *Engine) state(symbol string, dir types.Direction) *types.AlertState {
	key := stateKey{symbol, dir}
	st, ok := e.states[key]
	if !ok {
		st = &types.AlertState{}
		e.states[key] = st
	}
	return st
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
