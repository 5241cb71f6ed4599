package callbacks

import (
	"fmt"
	"strconv"
	"strings"
)

// Форматы callback data
const (
	BookSlot   = "book_slot:"   // book_slot:event_id:teacher_id:index
	CancelSlot = "cancel_slot:" // cancel_slot:slot_id
)

// BookSlotData - нажатие на свободное окно сетки
type BookSlotData struct {
	EventID   int64
	TeacherID int64
	Index     int
}

func (d BookSlotData) String() string {
	return fmt.Sprintf("%s%d:%d:%d", BookSlot, d.EventID, d.TeacherID, d.Index)
}

// ParseBookSlot разбирает "book_slot:event_id:teacher_id:index"
func ParseBookSlot(data string) (BookSlotData, error) {
	parts := strings.Split(strings.TrimPrefix(data, BookSlot), ":")
	if !strings.HasPrefix(data, BookSlot) || len(parts) != 3 {
		return BookSlotData{}, fmt.Errorf("invalid callback data format")
	}

	eventID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return BookSlotData{}, fmt.Errorf("parse event id: %w", err)
	}
	teacherID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return BookSlotData{}, fmt.Errorf("parse teacher id: %w", err)
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return BookSlotData{}, fmt.Errorf("parse index: %w", err)
	}

	return BookSlotData{EventID: eventID, TeacherID: teacherID, Index: index}, nil
}

// CancelSlotData возвращает callback data кнопки отмены записи
func CancelSlotData(slotID int64) string {
	return CancelSlot + strconv.FormatInt(slotID, 10)
}

// ParseCancelSlot разбирает "cancel_slot:slot_id"
func ParseCancelSlot(data string) (int64, error) {
	if !strings.HasPrefix(data, CancelSlot) {
		return 0, fmt.Errorf("invalid callback data format")
	}
	return strconv.ParseInt(strings.TrimPrefix(data, CancelSlot), 10, 64)
}
