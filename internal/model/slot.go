package model

import "time"

type SlotStatus string

const (
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled" // аннулирована администратором вместе с мероприятием
)

// Slot - запись родителя к учителю на консультацию
type Slot struct {
	ID        int64      `json:"id"`
	EventID   int64      `json:"event_id"`
	TeacherID int64      `json:"teacher_id"`
	ParentID  int64      `json:"parent_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsActive проверяет, что запись действующая
func (s *Slot) IsActive() bool {
	return s.Status == SlotStatusBooked
}

// DurationMinutes возвращает длительность записи в минутах
func (s *Slot) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime) / time.Minute)
}
