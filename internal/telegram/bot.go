package telegram

import (
	"context"
	"fmt"

	"binance-price-monitor/internal/chart"
	"binance-price-monitor/internal/types"
	"binance-price-monitor/lib/helpers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot; history may be nil to send alerts without charts
func NewBot(c BotConfig, history HistorySource) (*Bot, error) {
	if c.ChatID == 0 {
		return nil, errors.New("telegram chat id is not configured")
	}

	endpoint := c.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(c.Token, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:     bot,
		Config:  c,
		history: history,
	}, nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Notify sends title and message to the configured chat
func (b *Bot) Notify(_ context.Context, title, message string) error {
	return b.SendMessage(Message{
		ChatID: b.Config.ChatID,
		Text:   formatText(title, message),
	})
}

// NotifyEvent sends the alert with a chart of the recent prices of its symbol.
// Without enough history it falls back to a plain message.
func (b *Bot) NotifyEvent(ctx context.Context, ev types.AlertEvent, title, message string) error {
	if b.history == nil {
		return b.Notify(ctx, title, message)
	}

	png, err := chart.Render(ev.Symbol, b.history.History(ev.Symbol))
	if err != nil {
		log.WithField("symbol", ev.Symbol).Debugf("sending alert without chart: %v", err)
		return b.Notify(ctx, title, message)
	}

	photo := tgbotapi.NewPhoto(b.Config.ChatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("%s.png", ev.Symbol),
		Bytes: png,
	})
	photo.Caption = formatText(title, message)
	photo.ParseMode = "MarkdownV2"
	if _, err := b.Bot.Send(photo); err != nil {
		return errors.Wrapf(err, "could not send chart for %s", ev.Symbol)
	}
	return nil
}

func formatText(title, message string) string {
	return fmt.Sprintf("🚨 *%s*\n\n%s", helpers.EscapeMarkdownV2(title), helpers.EscapeMarkdownV2(message))
}
