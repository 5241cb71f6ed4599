package schedule

import (
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// Entry - одно окно сетки консультаций
type Entry struct {
	Index     int
	StartTime time.Time
	EndTime   time.Time
}

// Grid - упорядоченная сетка консультаций мероприятия
type Grid []Entry

// Generate строит сетку консультаций мероприятия.
// Длина сетки равна consultations_count; при нулевом количестве или длительности сетка пустая.
func Generate(event *model.Event) Grid {
	if event == nil || event.ConsultationsCount <= 0 || event.ConsultationDurationMinutes <= 0 {
		return nil
	}

	duration := event.ConsultationDuration()
	grid := make(Grid, 0, event.ConsultationsCount)
	for i := 0; i < event.ConsultationsCount; i++ {
		start := event.StartTime.Add(time.Duration(i) * duration)
		grid = append(grid, Entry{
			Index:     i,
			StartTime: start,
			EndTime:   start.Add(duration),
		})
	}

	return grid
}

// At возвращает окно по индексу
func (g Grid) At(index int) (Entry, bool) {
	if index < 0 || index >= len(g) {
		return Entry{}, false
	}
	return g[index], true
}

// IndexOf ищет окно, начинающееся в указанное время
func (g Grid) IndexOf(start time.Time) (int, bool) {
	for _, e := range g {
		if e.StartTime.Equal(start) {
			return e.Index, true
		}
	}
	return 0, false
}
