package price

import (
	"context"
	"strings"
	"sync"
	"time"

	"binance-price-monitor/internal/coins"
	"binance-price-monitor/lib/helpers"

	log "github.com/sirupsen/logrus"
)

// Updater keeps the ticker of the currently selected pair fresh and logs its status line
type Updater struct {
	feed     *Feed
	names    *coins.Resolver
	pairs    []string
	interval time.Duration
	mode     string

	mu      sync.Mutex
	current int
	title   string
}

// NewUpdater creates an updater over pairs, showing the first one
func NewUpdater(feed *Feed, names *coins.Resolver, pairs []string, interval time.Duration, mode string) *Updater {
	return &Updater{
		feed:     feed,
		names:    names,
		pairs:    pairs,
		interval: interval,
		mode:     mode,
	}
}

// Run refreshes the current pair every interval until ctx is cancelled
func (u *Updater) Run(ctx context.Context) error {
	log.Println("🚀 Price updater started.")

	u.Refresh(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Price updater stopped.")
			return nil
		case <-ticker.C:
			u.Refresh(ctx)
		}
	}
}

// Refresh fetches the current pair once; failures keep the previous title
func (u *Updater) Refresh(ctx context.Context) bool {
	u.mu.Lock()
	pair, mode := u.pairs[u.current], u.mode
	u.mu.Unlock()

	t, err := u.feed.GetTicker(ctx, pair)
	if err != nil {
		log.Errorf("❌ Failed to fetch %s price: %v", pair, err)
		return false
	}

	glyph := coins.Glyph(pair)
	title := helpers.FormatTitle(mode, glyph, t)

	u.mu.Lock()
	u.title = title
	u.mu.Unlock()

	log.WithField("symbol", pair).Info(helpers.FormatDetail(glyph, u.names.Name(pair), t, time.Now()))
	return true
}

// Current returns the selected pair
func (u *Updater) Current() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pairs[u.current]
}

// Title returns the last rendered status title
func (u *Updater) Title() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.title
}

// Next selects the following pair, wrapping around
func (u *Updater) Next() string {
	return u.move(1)
}

// Previous selects the preceding pair, wrapping around
func (u *Updater) Previous() string {
	return u.move(-1)
}

// Select makes pair the current one; unknown pairs leave the selection unchanged
func (u *Updater) Select(pair string) bool {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, p := range u.pairs {
		if p == pair {
			u.current = i
			return true
		}
	}
	return false
}

// SetMode switches the display mode used for the title
func (u *Updater) SetMode(mode string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.mode = mode
	if t, ok := u.feed.Last(u.pairs[u.current]); ok {
		u.title = helpers.FormatTitle(mode, coins.Glyph(t.Symbol), t)
	}
}

func (u *Updater) move(step int) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := len(u.pairs)
	u.current = ((u.current+step)%n + n) % n
	return u.pairs[u.current]
}
