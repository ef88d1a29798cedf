package share

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the part of *tgbotapi.BotAPI the sink uses
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts images as photos to a chat
type TelegramSink struct {
	Bot     TelegramSender
	ChatID  int64
	Caption string
}

// NewTelegramSink connects to the bot API with token
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramSink{Bot: bot, ChatID: chatID, Caption: "Payment QR"}, nil
}

func (s *TelegramSink) Save(ctx context.Context, image []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(s.ChatID, tgbotapi.FileBytes{Name: filename, Bytes: image})
	photo.Caption = fmt.Sprintf("%s (%s)", s.Caption, filename)

	if _, err := s.Bot.Send(photo); err != nil {
		return fmt.Errorf("share: telegram send: %w", err)
	}
	return nil
}
