package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"go.uber.org/zap"
)

type CellState string

const (
	CellFree   CellState = "free"
	CellMine   CellState = "mine"
	CellTaken  CellState = "taken"
	CellClosed CellState = "closed"
)

// Cell - состояние одного окна сетки у конкретного учителя
type Cell struct {
	Index     int
	StartTime time.Time
	EndTime   time.Time
	State     CellState
	Disabled  bool
	Slot      *model.Slot // действующая запись, если есть
}

// TeacherSlots - строка учителя в сетке записи
type TeacherSlots struct {
	Teacher *model.User
	Cells   []Cell
}

// ReconcileInput - всё, что нужно для построения сетки записи.
// Now фиксируется вызывающим один раз на весь запрос.
type ReconcileInput struct {
	Event    *model.Event
	Grid     Grid
	Teachers []*model.User
	Slots    []*model.Slot
	Viewer   model.Identity
	Now      time.Time
	Logger   *zap.Logger
}

type cellKey struct {
	teacherID int64
	start     int64
}

func keyOf(teacherID int64, start time.Time) cellKey {
	return cellKey{teacherID: teacherID, start: start.UnixNano()}
}

// Reconcile совмещает сетку мероприятия с существующими записями
func Reconcile(in ReconcileInput) []TeacherSlots {
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	existing := indexActiveSlots(in.Slots, logger)
	parentID, isParent := in.Viewer.ParentID()

	teachers := make([]*model.User, len(in.Teachers))
	copy(teachers, in.Teachers)
	sort.SliceStable(teachers, func(i, j int) bool {
		a, b := teachers[i], teachers[j]
		if an, bn := strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()); an != bn {
			return an < bn
		}
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		return a.ID < b.ID
	})

	result := make([]TeacherSlots, 0, len(teachers))
	for _, teacher := range teachers {
		cells := make([]Cell, 0, len(in.Grid))
		for _, entry := range in.Grid {
			slot := existing[keyOf(teacher.ID, entry.StartTime)]
			cell := Cell{
				Index:     entry.Index,
				StartTime: entry.StartTime,
				EndTime:   entry.EndTime,
				State:     CellFree,
				Slot:      slot,
			}

			if slot != nil {
				if isParent && slot.ParentID == parentID {
					cell.State = CellMine
				} else {
					cell.State = CellTaken
					cell.Disabled = true
				}
			}

			// Окно уже началось - действовать нельзя, своя запись остаётся видна
			if !entry.StartTime.After(in.Now) {
				if cell.State != CellMine {
					cell.State = CellClosed
				}
				cell.Disabled = true
			}

			cells = append(cells, cell)
		}
		result = append(result, TeacherSlots{Teacher: teacher, Cells: cells})
	}

	return result
}

// indexActiveSlots раскладывает действующие записи по (учитель, начало).
// При дубликатах побеждает самая поздняя запись.
func indexActiveSlots(slots []*model.Slot, logger *zap.Logger) map[cellKey]*model.Slot {
	index := make(map[cellKey]*model.Slot, len(slots))
	for _, slot := range slots {
		if slot == nil || !slot.IsActive() {
			continue
		}

		key := keyOf(slot.TeacherID, slot.StartTime)
		current, ok := index[key]
		if !ok {
			index[key] = slot
			continue
		}

		winner, loser := current, slot
		if newer(slot, current) {
			winner, loser = slot, current
		}
		index[key] = winner

		logger.Warn("Duplicate active slot ignored",
			zap.Int64("event_id", loser.EventID),
			zap.Int64("teacher_id", loser.TeacherID),
			zap.Time("start_time", loser.StartTime),
			zap.Int64("kept_slot_id", winner.ID),
			zap.Int64("ignored_slot_id", loser.ID),
		)
	}
	return index
}

func newer(a, b *model.Slot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
