package notify

import (
	"context"
	"strings"

	"binance-price-monitor/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers a titled message
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type eventNotifier interface {
	NotifyEvent(ctx context.Context, ev types.AlertEvent, title, message string) error
}

// Log writes notifications to the logrus standard logger
type Log struct{}

// Notify logs the notification at warning level so it shows with the default log level
func (Log) Notify(_ context.Context, title, message string) error {
	log.WithField("title", title).Warn("🔔 " + message)
	return nil
}

// Chain tries its notifiers in order and stops at the first that succeeds
type Chain []Notifier

// Notify returns nil as soon as one notifier delivers, or all errors otherwise
func (c Chain) Notify(ctx context.Context, title, message string) error {
	return c.try(func(n Notifier) error {
		return n.Notify(ctx, title, message)
	})
}

// NotifyEvent passes the event to notifiers that can render it and plain text to the rest
func (c Chain) NotifyEvent(ctx context.Context, ev types.AlertEvent, title, message string) error {
	return c.try(func(n Notifier) error {
		if en, ok := n.(eventNotifier); ok {
			return en.NotifyEvent(ctx, ev, title, message)
		}
		return n.Notify(ctx, title, message)
	})
}

func (c Chain) try(send func(Notifier) error) error {
	if len(c) == 0 {
		return errors.New("no notifiers configured")
	}

	var failures []string
	for _, n := range c {
		err := send(n)
		if err == nil {
			return nil
		}
		log.Debugf("⚠️ Notifier %T failed: %v", n, err)
		failures = append(failures, err.Error())
	}
	return errors.Errorf("all notifiers failed: %s", strings.Join(failures, "; "))
}
