package gateway

import (
	"context"
	"fmt"
	"strconv"

	"birthday_reminder_bot/internal/domain/gateway"

	"gopkg.in/telebot.v3"
)

// TelegramGateway implements the messaging gateway contract using the
// gopkg.in/telebot.v3 library. Recipient identifiers are numeric chat ids.
type TelegramGateway struct {
	bot *telebot.Bot
}

func NewTelegramGateway(b *telebot.Bot) *TelegramGateway {
	return &TelegramGateway{bot: b}
}

func (g *TelegramGateway) Send(_ context.Context, recipientID, text string) (gateway.Result, error) {
	chatID, err := strconv.ParseInt(gateway.NormalizeRecipient(recipientID), 10, 64)
	if err != nil {
		err = fmt.Errorf("recipient %q is not a telegram chat id: %w", recipientID, err)
		return gateway.Result{Success: false, Error: err.Error()}, err
	}

	msg, err := g.bot.Send(&telebot.User{ID: chatID}, text)
	if err != nil {
		return gateway.Result{Success: false, Error: err.Error()}, err
	}
	return gateway.Result{Success: true, MessageID: strconv.Itoa(msg.ID)}, nil
}
