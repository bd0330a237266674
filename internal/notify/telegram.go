package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть API бота, которая нужна для уведомлений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// ChatResolver находит Telegram chat id получателя
type ChatResolver interface {
	GetTelegramChatID(ctx context.Context, userID int64) (*int64, error)
}

// TelegramNotifier отправляет уведомление в личный чат получателя
type TelegramNotifier struct {
	sender MessageSender
	chats  ChatResolver
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, chats ChatResolver, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chats: chats, logger: logger}
}

func (t *TelegramNotifier) Send(ctx context.Context, n model.Notification) error {
	chatID, err := t.chats.GetTelegramChatID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve telegram chat: %w", err)
	}
	if chatID == nil {
		// Пользователь не привязал Telegram
		t.logger.Debug("Skipping telegram notification", zap.Int64("recipient_id", n.RecipientID))
		return nil
	}

	_, err = t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *chatID,
		Text:   n.Subject + "\n\n" + n.Body,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
