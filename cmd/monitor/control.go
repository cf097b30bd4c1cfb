package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
)

type controlAction int

const (
	actionReload controlAction = iota + 1
	actionNextPair
	actionPreviousPair
)

type alertReloader interface {
	LoadThresholds() error
	CheckNow(ctx context.Context)
}

type pairCycler interface {
	Next() string
	Previous() string
	Refresh(ctx context.Context) bool
}

// controller reacts to signals sent to the running monitor
type controller struct {
	alerts  alertReloader
	pairs   pairCycler
	actions map[os.Signal]controlAction
}

func (c *controller) Run(ctx context.Context, sigC <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigC:
			c.handle(ctx, c.actions[sig])
		}
	}
}

func (c *controller) handle(ctx context.Context, action controlAction) {
	switch action {
	case actionReload:
		log.Info("🔁 Reloading alert thresholds")
		if err := c.alerts.LoadThresholds(); err != nil {
			log.Errorf("❌ %v", err)
			return
		}
		c.alerts.CheckNow(ctx)
	case actionNextPair:
		log.WithField("symbol", c.pairs.Next()).Info("➡️ Showing next pair")
		c.pairs.Refresh(ctx)
	case actionPreviousPair:
		log.WithField("symbol", c.pairs.Previous()).Info("⬅️ Showing previous pair")
		c.pairs.Refresh(ctx)
	}
}

func (c *controller) signals() []os.Signal {
	out := make([]os.Signal, 0, len(c.actions))
	for sig := range c.actions {
		out = append(out, sig)
	}
	return out
}
