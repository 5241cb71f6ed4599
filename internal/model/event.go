package model

import "time"

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Priority возвращает порядок статуса при сортировке мероприятий
func (s EventStatus) Priority() int {
	switch s {
	case EventStatusOngoing:
		return 0
	case EventStatusScheduled:
		return 1
	case EventStatusCompleted:
		return 2
	case EventStatusCancelled:
		return 3
	default:
		return 4
	}
}

// Event - день консультаций в школе
type Event struct {
	ID                          int64       `json:"id"`
	SchoolID                    int64       `json:"school_id"`
	Name                        string      `json:"name"`
	StartTime                   time.Time   `json:"start_time"`
	EndTime                     time.Time   `json:"end_time"`
	Status                      EventStatus `json:"status"`
	ConsultationsCount          int         `json:"consultations_count"`
	ConsultationDurationMinutes int         `json:"consultation_duration_minutes"`
	CreatedAt                   time.Time   `json:"created_at"`

	TeacherIDs []int64 `json:"teacher_ids"`
}

// ConsultationDuration возвращает длительность одной консультации
func (e *Event) ConsultationDuration() time.Duration {
	return time.Duration(e.ConsultationDurationMinutes) * time.Minute
}

// ExpectedEnd - окончание мероприятия по сетке консультаций
func (e *Event) ExpectedEnd() time.Time {
	return e.StartTime.Add(time.Duration(e.ConsultationsCount) * e.ConsultationDuration())
}

// HasTeacher проверяет, что учитель участвует в мероприятии
func (e *Event) HasTeacher(teacherID int64) bool {
	for _, id := range e.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// IsCancelled checks if event was cancelled by an administrator
func (e *Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}
