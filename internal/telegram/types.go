package telegram

import (
	"binance-price-monitor/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token  string
	ChatID int64
	Debug  bool
	// APIEndpoint overrides the Bot API URL template, tgbotapi.APIEndpoint when empty
	APIEndpoint string
}

// HistorySource provides recent prices for alert charts
type HistorySource interface {
	History(symbol string) []types.PricePoint
}

// Bot telegram notification client
type Bot struct {
	Bot     *tgbotapi.BotAPI
	Config  BotConfig
	history HistorySource
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
