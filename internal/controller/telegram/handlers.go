package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const maxListedBookings = 10

// ChatUsers поиск пользователя по привязанному чату
type ChatUsers interface {
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
}

// Bookings выборки бронирований для /mybookings
type Bookings interface {
	StudentBookings(ctx context.Context, studentID int64) ([]model.Booking, error)
	TeacherBookings(ctx context.Context, teacherID int64) ([]model.Booking, error)
}

type Handlers struct {
	users    ChatUsers
	bookings Bookings
	logger   *zap.Logger
}

func NewHandlers(users ChatUsers, bookings Bookings, logger *zap.Logger) *Handlers {
	return &Handlers{users: users, bookings: bookings, logger: logger}
}

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, startText(update.Message.Chat.ID))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleMyBookings обрабатывает команду /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text, err := h.myBookingsText(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to load bookings for chat", zap.Int64("chat_id", chatID), zap.Error(err))
		text = "Something went wrong. Please try again later."
	}
	h.reply(ctx, b, chatID, text)
}

// HandleSchedule обрабатывает команду /schedule: картинка недели
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	img, text, err := h.scheduleImage(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to render schedule", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, b, chatID, "Something went wrong. Please try again later.")
		return
	}
	if img == nil {
		h.reply(ctx, b, chatID, text)
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileUpload{Filename: "schedule.png", Data: bytes.NewReader(img)},
	})
	if err != nil {
		h.logger.Warn("Failed to send schedule image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.logger.Warn("Failed to send telegram reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

const helpText = "Commands:\n" +
	"/start - show the chat id to link in your profile\n" +
	"/mybookings - your latest bookings\n" +
	"/schedule - your week as a picture\n" +
	"/help - this message\n\n" +
	"Booking actions are available in the web app."

func startText(chatID int64) string {
	return fmt.Sprintf(
		"Welcome!\n\n"+
			"Your chat id is %d.\n"+
			"Add it as telegramChatId in your profile to receive booking notifications here.",
		chatID,
	)
}

const unlinkedText = "This chat is not linked to an account yet. Use /start to get your chat id."

// chatBookings бронирования владельца чата; nil user если чат не привязан
func (h *Handlers) chatBookings(ctx context.Context, chatID int64) (*model.User, []model.Booking, error) {
	user, err := h.users.GetByTelegramChatID(ctx, chatID)
	if err != nil || user == nil {
		return nil, nil, err
	}

	var list []model.Booking
	if user.Role == model.RoleTeacher {
		list, err = h.bookings.TeacherBookings(ctx, user.ID)
	} else {
		list, err = h.bookings.StudentBookings(ctx, user.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return user, list, nil
}

func (h *Handlers) myBookingsText(ctx context.Context, chatID int64) (string, error) {
	user, list, err := h.chatBookings(ctx, chatID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return unlinkedText, nil
	}

	if len(list) == 0 {
		return "You have no bookings yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your bookings (%d):\n", len(list))
	for i, bk := range list {
		if i == maxListedBookings {
			fmt.Fprintf(&sb, "\n...and %d more", len(list)-maxListedBookings)
			break
		}
		sb.WriteString("\n")
		sb.WriteString(FormatBooking(bk, user.Role))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// scheduleImage возвращает PNG либо текст, если рисовать нечего
func (h *Handlers) scheduleImage(ctx context.Context, chatID int64) ([]byte, string, error) {
	user, list, err := h.chatBookings(ctx, chatID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, unlinkedText, nil
	}
	if len(list) == 0 {
		return nil, "You have no bookings yet.", nil
	}

	img, err := RenderWeek(fmt.Sprintf("Weekly schedule: %s", user.DisplayName()), list, user.Role)
	if err != nil {
		return nil, "", err
	}
	return img, "", nil
}
