package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/controller/format"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// requireUser находит пользователя по Telegram-аккаунту отправителя
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.Identify(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, service.ErrAccountNotLinked) {
			h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}
		h.sendError(ctx, b, update.Message.Chat.ID, err)
		return nil, false
	}

	return user, true
}

// requireParent пропускает только родителей, привязанных к школе
func (h *Handlers) requireParent(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if user.Role != model.RoleParent || user.SchoolID == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только родителям.")
		return nil, false
	}

	return user, true
}

// sendError отправляет пользователю текст ошибки сервиса
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	if service.IsRetryable(err) {
		h.logger.Error("Request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.sendMessage(ctx, b, chatID, format.ErrorMessage(err))
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendMessageWithKeyboard(ctx, b, chatID, text, nil)
}

// sendPages отправляет текст из нескольких сообщений; клавиатура прикрепляется к последнему
func (h *Handlers) sendPages(ctx context.Context, b *bot.Bot, chatID int64, pages []string, markup *models.InlineKeyboardMarkup) {
	for i, page := range pages {
		if i == len(pages)-1 {
			h.sendMessageWithKeyboard(ctx, b, chatID, page, markup)
			return
		}
		h.sendMessage(ctx, b, chatID, page)
	}
}

// sendMessageWithKeyboard отправляет сообщение с inline клавиатурой (nil - без неё)
func (h *Handlers) sendMessageWithKeyboard(ctx context.Context, b *bot.Bot, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := b.SendMessage(ctx, params)
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
