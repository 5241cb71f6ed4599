package schedule

import (
	"sort"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// StatusAt вычисляет статус мероприятия на момент now.
// Отменённое мероприятие остаётся отменённым.
func StatusAt(event *model.Event, now time.Time) model.EventStatus {
	if event.Status == model.EventStatusCancelled {
		return model.EventStatusCancelled
	}

	switch {
	case !now.Before(event.EndTime):
		return model.EventStatusCompleted
	case !now.Before(event.StartTime):
		return model.EventStatusOngoing
	default:
		return model.EventStatusScheduled
	}
}

// Less orders events by status priority, then start time, then id descending
func Less(a, b *model.Event) bool {
	if pa, pb := a.Status.Priority(), b.Status.Priority(); pa != pb {
		return pa < pb
	}
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.ID > b.ID
}

// SortEvents сортирует мероприятия в порядке отображения
func SortEvents(events []*model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Less(events[i], events[j])
	})
}

// Closest выбирает ближайшее мероприятие.
// Без includePast мероприятия, закончившиеся до now, не рассматриваются.
func Closest(events []*model.Event, now time.Time, includePast bool) *model.Event {
	var best *model.Event
	for _, e := range events {
		if !includePast && e.EndTime.Before(now) {
			continue
		}
		if best == nil || Less(e, best) {
			best = e
		}
	}
	return best
}
