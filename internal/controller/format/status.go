package format

import (
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// StatusDisplay - emoji и подпись статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

var unknownStatus = StatusDisplay{"❓", "Неизвестно"}

// EventStatus возвращает отображение статуса мероприятия
func EventStatus(status model.EventStatus) StatusDisplay {
	displays := map[model.EventStatus]StatusDisplay{
		model.EventStatusScheduled: {"🗓", "Запланировано"},
		model.EventStatusOngoing:   {"🟢", "Идёт сейчас"},
		model.EventStatusCompleted: {"✔️", "Завершено"},
		model.EventStatusCancelled: {"🚫", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// Cell возвращает отображение ячейки сетки записи
func Cell(state schedule.CellState) StatusDisplay {
	displays := map[schedule.CellState]StatusDisplay{
		schedule.CellFree:   {"🟢", "Свободно"},
		schedule.CellMine:   {"⭐️", "Ваша запись"},
		schedule.CellTaken:  {"🔴", "Занято"},
		schedule.CellClosed: {"⚫️", "Недоступно"},
	}

	if display, ok := displays[state]; ok {
		return display
	}
	return unknownStatus
}

// BookingPhase возвращает отображение этапа записи родителя
func BookingPhase(phase service.BookingPhase) StatusDisplay {
	displays := map[service.BookingPhase]StatusDisplay{
		service.PhaseUpcoming: {"⏳", "Предстоит"},
		service.PhaseLive:     {"🟢", "Идёт сейчас"},
		service.PhasePast:     {"✔️", "Прошла"},
	}

	if display, ok := displays[phase]; ok {
		return display
	}
	return unknownStatus
}
