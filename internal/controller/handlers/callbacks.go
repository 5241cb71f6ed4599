package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_scheduler/internal/controller/format"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// HandleCallbackQuery обрабатывает нажатия на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	user, err := h.userService.Identify(ctx, query.From.ID)
	if err != nil {
		h.answerCallback(ctx, b, query.ID, format.ErrorMessage(err), true)
		return
	}

	switch {
	case strings.HasPrefix(query.Data, callbacks.BookSlot):
		h.handleBookCallback(ctx, b, query, user)
	case strings.HasPrefix(query.Data, callbacks.CancelSlot):
		h.handleCancelCallback(ctx, b, query, user)
	default:
		h.logger.Warn("Unknown callback data", zap.String("data", query.Data))
		h.answerCallback(ctx, b, query.ID, "Неизвестное действие", false)
	}
}

func (h *Handlers) handleBookCallback(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, user *model.User) {
	data, err := callbacks.ParseBookSlot(query.Data)
	if err != nil {
		h.answerCallback(ctx, b, query.ID, "Неверные данные", true)
		return
	}

	result, err := h.bookingService.Book(ctx, user.Identity(), service.BookRequest{
		EventID:   data.EventID,
		TeacherID: data.TeacherID,
		Index:     data.Index,
	})
	if err != nil {
		h.answerCallback(ctx, b, query.ID, format.ErrorMessage(err), true)
		return
	}

	slot := result.Slot
	text := fmt.Sprintf("✅ Вы записаны на %s", format.DateTime(slot.StartTime, h.loc))
	if result.AlreadyBooked {
		text = fmt.Sprintf("ℹ️ Вы уже записаны на %s", format.DateTime(slot.StartTime, h.loc))
	}
	h.answerCallback(ctx, b, query.ID, text, false)

	if chatID, ok := callbackChatID(query); ok {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("%s\nЗапись #%d\n\nОтменить: /cancel %d", text, slot.ID, slot.ID))
	}
}

func (h *Handlers) handleCancelCallback(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, user *model.User) {
	slotID, err := callbacks.ParseCancelSlot(query.Data)
	if err != nil {
		h.answerCallback(ctx, b, query.ID, "Неверные данные", true)
		return
	}

	slot, err := h.bookingService.Cancel(ctx, user.Identity(), service.SlotRef{SlotID: &slotID})
	if err != nil {
		h.answerCallback(ctx, b, query.ID, format.ErrorMessage(err), true)
		return
	}

	text := fmt.Sprintf("✅ Запись #%d на %s отменена.", slot.ID, format.DateTime(slot.StartTime, h.loc))
	h.answerCallback(ctx, b, query.ID, text, false)

	if chatID, ok := callbackChatID(query); ok {
		h.sendMessage(ctx, b, chatID, text)
	}
}

func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func callbackChatID(query *models.CallbackQuery) (int64, bool) {
	if query.Message.Message == nil {
		return 0, false
	}
	return query.Message.Message.Chat.ID, true
}
