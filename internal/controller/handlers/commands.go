package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/controller/format"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/event - Ближайшее мероприятие и свободное время\n" +
	"/book <ID учителя> <номер> - Записаться на консультацию\n" +
	"/mybookings - Мои записи\n" +
	"/cancel <номер записи> - Отменить запись\n" +
	"/help - Показать эту справку\n\n" +
	"Для администратора:\n" +
	"/link <ID пользователя> <Telegram ID> - Привязать Telegram к аккаунту"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.Identify(ctx, telegramID)
	if err != nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"👋 Здравствуйте!\n\n"+
				"Ваш Telegram ещё не привязан к аккаунту школы.\n"+
				"Сообщите администратору школы ваш ID: %d",
			telegramID,
		))
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Здравствуйте, %s!\n\nЭто бот записи на консультации к учителям.\n\n%s",
		user.DisplayName(),
		helpText,
	))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleEvent показывает сетку записи на ближайшее мероприятие школы
func (h *Handlers) HandleEvent(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireParent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	actor := user.Identity()

	event, ok := h.closestEvent(ctx, b, chatID, actor)
	if !ok {
		return
	}

	view, err := h.bookingService.SlotView(ctx, actor, event.ID)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendPages(ctx, b, chatID, format.SlotView(view, h.loc), slotKeyboard(view, h.loc))
}

// HandleBook записывает родителя на окно ближайшего мероприятия
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireParent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	actor := user.Identity()

	teacherID, index, err := parseBookArgs(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Использование: /book <ID учителя> <номер окна>\n\nСетка записи: /event")
		return
	}

	event, ok := h.closestEvent(ctx, b, chatID, actor)
	if !ok {
		return
	}

	result, err := h.bookingService.Book(ctx, actor, service.BookRequest{
		EventID:   event.ID,
		TeacherID: teacherID,
		Index:     index,
	})
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	slot := result.Slot
	title := "✅ Вы записаны!"
	if result.AlreadyBooked {
		title = "ℹ️ Вы уже записаны на это время."
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"%s\n\n%s\n🕐 %s %s\nЗапись #%d\n\nОтменить: /cancel %d",
		title,
		event.Name,
		format.Date(slot.StartTime, h.loc),
		format.TimeRange(slot.StartTime, slot.EndTime, h.loc),
		slot.ID,
		slot.ID,
	))
}

// HandleCancel отменяет запись родителя
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireParent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slotID, err := parseCancelArgs(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Использование: /cancel <номер записи>\n\nВаши записи: /mybookings")
		return
	}

	slot, err := h.bookingService.Cancel(ctx, user.Identity(), service.SlotRef{SlotID: &slotID})
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Запись #%d на %s отменена.",
		slot.ID,
		format.DateTime(slot.StartTime, h.loc),
	))
}

// HandleMyBookings показывает записи родителя
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireParent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	cards, err := h.bookingService.ParentBookings(ctx, user.Identity())
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendPages(ctx, b, chatID, format.BookingCards(cards, h.loc), bookingsKeyboard(cards, h.loc))
}

// HandleLink привязывает Telegram-аккаунт к пользователю школы (только администратор)
func (h *Handlers) HandleLink(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	userID, telegramID, err := parseLinkArgs(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Использование: /link <ID пользователя> <Telegram ID>\n\nОтвязать: /link <ID пользователя> -")
		return
	}

	if err := h.userService.LinkTelegram(ctx, user.Identity(), userID, telegramID); err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	if telegramID == nil {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Telegram отвязан от пользователя #%d.", userID))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Telegram ID %d привязан к пользователю #%d.", *telegramID, userID))
}

func (h *Handlers) closestEvent(ctx context.Context, b *bot.Bot, chatID int64, actor model.Identity) (*model.Event, bool) {
	event, err := h.eventService.ClosestEvent(ctx, actor.SchoolID, false)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return nil, false
	}

	if event == nil {
		h.logger.Debug("No upcoming events", zap.Int64("school_id", actor.SchoolID))
		h.sendMessage(ctx, b, chatID, "📭 Ближайших мероприятий нет.")
		return nil, false
	}

	return event, true
}
