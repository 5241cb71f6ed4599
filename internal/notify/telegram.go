package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

// Sender - часть *bot.Bot, нужная для отправки сообщений
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier сообщает учителям и родителям об изменениях записей.
// Пользователи без привязанного Telegram пропускаются.
type TelegramNotifier struct {
	sender Sender
	users  repository.UserRepository
	loc    *time.Location
	logger *zap.Logger
}

func NewTelegramNotifier(sender Sender, users repository.UserRepository, loc *time.Location, logger *zap.Logger) *TelegramNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		loc:    loc,
		logger: logger,
	}
}

// SlotBooked уведомляет учителя о новой записи
func (n *TelegramNotifier) SlotBooked(ctx context.Context, event *model.Event, slot *model.Slot) {
	text := fmt.Sprintf(
		"📝 Новая запись\n\n%s\n🕐 %s\n👤 %s",
		event.Name,
		n.timeRange(slot),
		n.userName(ctx, slot.ParentID),
	)
	n.send(ctx, slot.TeacherID, text)
}

// SlotCancelled уведомляет учителя об отмене записи родителем
func (n *TelegramNotifier) SlotCancelled(ctx context.Context, event *model.Event, slot *model.Slot) {
	text := fmt.Sprintf(
		"❌ Запись отменена\n\n%s\n🕐 %s\n👤 %s",
		event.Name,
		n.timeRange(slot),
		n.userName(ctx, slot.ParentID),
	)
	n.send(ctx, slot.TeacherID, text)
}

// SlotsVoided уведомляет родителей об отмене мероприятия
func (n *TelegramNotifier) SlotsVoided(ctx context.Context, event *model.Event, slots []*model.Slot) {
	for _, slot := range slots {
		text := fmt.Sprintf(
			"⚠️ Мероприятие «%s» отменено.\n\nВаша запись на %s к %s аннулирована.",
			event.Name,
			n.timeRange(slot),
			n.userName(ctx, slot.TeacherID),
		)
		n.send(ctx, slot.ParentID, text)
	}
}

func (n *TelegramNotifier) timeRange(slot *model.Slot) string {
	start := slot.StartTime.In(n.loc)
	end := slot.EndTime.In(n.loc)
	return fmt.Sprintf("%s %s-%s", start.Format("02.01.2006"), start.Format("15:04"), end.Format("15:04"))
}

func (n *TelegramNotifier) userName(ctx context.Context, userID int64) string {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		return fmt.Sprintf("#%d", userID)
	}
	return user.DisplayName()
}

func (n *TelegramNotifier) send(ctx context.Context, userID int64, text string) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("Failed to load notification recipient",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}
	if user == nil || user.TelegramID == nil {
		n.logger.Debug("Recipient has no telegram account", zap.Int64("user_id", userID))
		return
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   text,
	})
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.Int64("user_id", userID),
			zap.Int64("telegram_id", *user.TelegramID),
			zap.Error(err),
		)
	}
}
