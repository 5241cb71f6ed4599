package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// EventHeader - заголовок мероприятия
func EventHeader(event *model.Event, loc *time.Location) string {
	status := EventStatus(event.Status)
	return fmt.Sprintf(
		"📅 %s\n%s %s · %s %s\n%d %s по %s",
		event.Name,
		status.Emoji, status.Text,
		Date(event.StartTime, loc), TimeRange(event.StartTime, event.EndTime, loc),
		event.ConsultationsCount, PluralizeConsultations(event.ConsultationsCount),
		Duration(event.ConsultationDurationMinutes),
	)
}

// SlotView - сетка записи; номера окон начинаются с 1.
// Сетка разбивается на сообщения по учителям, чтобы не превысить лимит Telegram.
func SlotView(view *service.EventSlotView, loc *time.Location) []string {
	header := EventHeader(view.Event, loc)

	if len(view.Teachers) == 0 {
		return Paginate(header, "Учителя ещё не назначены.")
	}

	blocks := make([]string, 0, len(view.Teachers)+2)
	blocks = append(blocks, header)
	for _, row := range view.Teachers {
		var sb strings.Builder
		fmt.Fprintf(&sb, "👩‍🏫 %s (ID %d)", row.Teacher.DisplayName(), row.Teacher.ID)
		for _, cell := range row.Cells {
			display := Cell(cell.State)
			fmt.Fprintf(&sb, "\n%2d. %s %s", cell.Index+1, TimeRange(cell.StartTime, cell.EndTime, loc), display.Emoji)
		}
		blocks = append(blocks, sb.String())
	}

	if view.CanBook {
		blocks = append(blocks, "🟢 свободно · ⭐️ ваша запись · 🔴 занято · ⚫️ недоступно\n"+
			"Записаться: /book <ID учителя> <номер>")
	} else {
		blocks = append(blocks, "Запись на мероприятие закрыта.")
	}

	return Paginate(blocks...)
}

// BookingCards - список записей родителя
func BookingCards(cards []service.BookingCard, loc *time.Location) []string {
	if len(cards) == 0 {
		return []string{"У вас пока нет записей.\n\nПосмотреть ближайшее мероприятие: /event"}
	}

	blocks := make([]string, 0, len(cards)+1)
	blocks = append(blocks, "📋 Ваши записи:")
	for _, card := range cards {
		phase := BookingPhase(card.Phase)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s Запись #%d · %s\n%s\n🕐 %s %s (%s)\n👩‍🏫 %s",
			phase.Emoji, card.Slot.ID, phase.Text,
			card.Event.Name,
			Date(card.Slot.StartTime, loc), TimeRange(card.Slot.StartTime, card.Slot.EndTime, loc),
			Duration(card.Slot.DurationMinutes()),
			card.Teacher.DisplayName(),
		)
		if card.Location != "" {
			fmt.Fprintf(&sb, "\n📍 %s", card.Location)
		}
		if card.CanCancel {
			fmt.Fprintf(&sb, "\nОтменить: /cancel %d", card.Slot.ID)
		}
		blocks = append(blocks, sb.String())
	}
	return Paginate(blocks...)
}

// ErrorMessage переводит ошибку сервиса в текст для пользователя
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAccountNotLinked):
		return "❌ Ваш Telegram не привязан к аккаунту школы."
	case errors.Is(err, service.ErrTelegramInUse):
		return "❌ Этот Telegram уже привязан к другому пользователю."
	case errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден."
	case errors.Is(err, service.ErrSlotTaken):
		return "❌ Это время уже занято. Выберите другое."
	case errors.Is(err, service.ErrSlotClosed):
		return "❌ Это время уже началось, запись закрыта."
	case errors.Is(err, service.ErrTooLateToCancel):
		return "❌ Консультация уже началась, отменить запись нельзя."
	case errors.Is(err, service.ErrNotSlotOwner):
		return "❌ Это не ваша запись."
	case errors.Is(err, service.ErrSlotNotFound):
		return "❌ Запись не найдена."
	case errors.Is(err, service.ErrEventCancelled):
		return "❌ Мероприятие отменено."
	case errors.Is(err, service.ErrTeacherNotInEvent):
		return "❌ Этот учитель не участвует в мероприятии."
	case errors.Is(err, service.ErrSlotIndexOutOfRange):
		return "❌ Нет окна с таким номером."
	case errors.Is(err, service.ErrEventNotFound):
		return "❌ Мероприятие не найдено."
	case errors.Is(err, service.ErrAuthorization):
		return "❌ Эта команда вам недоступна."
	case errors.Is(err, service.ErrValidation):
		return "❌ Неверные данные."
	}
	return "❌ Произошла ошибка. Попробуйте позже."
}
