package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"binance-price-monitor/internal/types"
)

type request struct {
	method string
	chatID string
	text   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []request
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	w.Header().Set("Content-Type", "application/json")

	if method == "getMe" {
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"monitor","username":"monitor_bot"}}`)
		return
	}

	text := r.FormValue("text")
	if text == "" {
		text = r.FormValue("caption")
	}
	f.mu.Lock()
	f.requests = append(f.requests, request{method: method, chatID: r.FormValue("chat_id"), text: text})
	f.mu.Unlock()

	fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
}

func newTestBot(t *testing.T, history HistorySource) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	bot, err := NewBot(BotConfig{Token: "TOKEN", ChatID: 42, APIEndpoint: srv.URL + "/bot%s/%s"}, history)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return bot, api
}

type staticHistory []types.PricePoint

func (h staticHistory) History(string) []types.PricePoint { return h }

func TestNewBot_RequiresChatID(t *testing.T) {
	if _, err := NewBot(BotConfig{Token: "TOKEN"}, nil); err == nil {
		t.Error("expected an error without chat id")
	}
}

func TestBot_Notify(t *testing.T) {
	bot, api := newTestBot(t, nil)

	if err := bot.Notify(context.Background(), "₿ Bitcoin high price alert", "Current price 71000.5"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(api.requests) != 1 {
		t.Fatalf("requests = %+v", api.requests)
	}
	got := api.requests[0]
	if got.method != "sendMessage" || got.chatID != "42" {
		t.Errorf("unexpected request %+v", got)
	}
	if !strings.Contains(got.text, `71000\.5`) {
		t.Errorf("text not escaped: %q", got.text)
	}
}

func TestBot_NotifyEventWithChart(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := staticHistory{
		{Price: 69000, Timestamp: start},
		{Price: 70500, Timestamp: start.Add(time.Minute)},
		{Price: 71000, Timestamp: start.Add(2 * time.Minute)},
	}
	bot, api := newTestBot(t, history)

	ev := types.AlertEvent{Symbol: "BTCUSDT", Direction: types.DirectionHigh}
	if err := bot.NotifyEvent(context.Background(), ev, "title", "message"); err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
	if len(api.requests) != 1 || api.requests[0].method != "sendPhoto" {
		t.Fatalf("expected sendPhoto, got %+v", api.requests)
	}
	if !strings.Contains(api.requests[0].text, "title") {
		t.Errorf("caption = %q", api.requests[0].text)
	}
}

func TestBot_NotifyEventWithoutHistory(t *testing.T) {
	bot, api := newTestBot(t, staticHistory{})

	ev := types.AlertEvent{Symbol: "BTCUSDT", Direction: types.DirectionLow}
	if err := bot.NotifyEvent(context.Background(), ev, "title", "message"); err != nil {
		t.Fatalf("NotifyEvent: %v", err)
	}
	if len(api.requests) != 1 || api.requests[0].method != "sendMessage" {
		t.Errorf("expected a plain message, got %+v", api.requests)
	}
}
