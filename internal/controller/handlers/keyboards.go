package handlers

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/consultation_scheduler/internal/controller/callbacks"
	"github.com/Freeeeeet/consultation_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// Telegram ограничивает размер inline клавиатуры
const maxKeyboardButtons = 90

// slotKeyboard - кнопки записи на свободные окна
func slotKeyboard(view *service.EventSlotView, loc *time.Location) *models.InlineKeyboardMarkup {
	if !view.CanBook {
		return nil
	}

	var buttons []models.InlineKeyboardButton
	for _, row := range view.Teachers {
		name := row.Teacher.LastName
		if name == "" {
			name = row.Teacher.DisplayName()
		}
		for _, cell := range row.Cells {
			if cell.State != schedule.CellFree || cell.Disabled {
				continue
			}
			if len(buttons) == maxKeyboardButtons {
				break
			}
			data := callbacks.BookSlotData{EventID: view.Event.ID, TeacherID: row.Teacher.ID, Index: cell.Index}
			buttons = append(buttons, keyboard.Button(
				fmt.Sprintf("%s %s", name, cell.StartTime.In(loc).Format("15:04")),
				data.String(),
			))
		}
	}

	kb := keyboard.NewBuilder().Grid(3, buttons...)
	if kb.Empty() {
		return nil
	}
	return kb.Build()
}

// bookingsKeyboard - кнопки отмены записей, которые ещё можно отменить
func bookingsKeyboard(cards []service.BookingCard, loc *time.Location) *models.InlineKeyboardMarkup {
	kb := keyboard.NewBuilder()
	for _, card := range cards {
		if !card.CanCancel {
			continue
		}
		kb.Row(keyboard.Button(
			fmt.Sprintf("❌ Отменить #%d (%s)", card.Slot.ID, card.Slot.StartTime.In(loc).Format("15:04")),
			callbacks.CancelSlotData(card.Slot.ID),
		))
	}
	if kb.Empty() {
		return nil
	}
	return kb.Build()
}
