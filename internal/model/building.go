package model

import (
	"fmt"
	"time"
)

// Building represents a school building where consultations take place
type Building struct {
	ID       int64  `json:"id"`
	SchoolID int64  `json:"school_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// BuildingBooking - кабинет, в котором учитель принимает родителей во время мероприятия
type BuildingBooking struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	TeacherID  int64     `json:"teacher_id"`
	BuildingID int64     `json:"building_id"`
	Classroom  *string   `json:"classroom"` // может быть не указан
	CreatedAt  time.Time `json:"created_at"`

	Building *Building `json:"building,omitempty"`
}

// LocationLabel возвращает подпись места для карточки записи
func (b *BuildingBooking) LocationLabel() string {
	if b.Building == nil {
		return ""
	}
	if b.Classroom != nil && *b.Classroom != "" {
		return fmt.Sprintf("%s, ауд. %s", b.Building.Name, *b.Classroom)
	}
	return b.Building.Name
}
