package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

func newEvent() *model.Event {
	return &model.Event{
		ID:                          7,
		StartTime:                   at(10, 0),
		EndTime:                     at(11, 0),
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 15,
		TeacherIDs:                  []int64{100, 101},
	}
}

func teachers() []*model.User {
	return []*model.User{
		{ID: 101, LastName: "Петрова", FirstName: "Анна", Role: model.RoleTeacher},
		{ID: 100, LastName: "Иванов", FirstName: "Пётр", Role: model.RoleTeacher},
	}
}

func parent(id int64) model.Identity {
	return model.Identity{UserID: id, SchoolID: 1, Role: model.RoleParent}
}

func states(cells []Cell) []CellState {
	out := make([]CellState, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.State)
	}
	return out
}

func TestReconcile_States(t *testing.T) {
	event := newEvent()
	slots := []*model.Slot{
		{ID: 1, EventID: 7, TeacherID: 100, ParentID: 1, StartTime: at(10, 15), EndTime: at(10, 30), Status: model.SlotStatusBooked},
		{ID: 2, EventID: 7, TeacherID: 100, ParentID: 2, StartTime: at(10, 30), EndTime: at(10, 45), Status: model.SlotStatusBooked},
		{ID: 3, EventID: 7, TeacherID: 101, ParentID: 2, StartTime: at(10, 45), EndTime: at(11, 0), Status: model.SlotStatusCancelled},
	}

	rows := Reconcile(ReconcileInput{
		Event:    event,
		Grid:     Generate(event),
		Teachers: teachers(),
		Slots:    slots,
		Viewer:   parent(1),
		Now:      at(9, 0),
	})

	require.Len(t, rows, 2)
	assert.Equal(t, int64(100), rows[0].Teacher.ID, "teachers sorted by full name")
	assert.Equal(t, []CellState{CellFree, CellMine, CellTaken, CellFree}, states(rows[0].Cells))
	assert.Equal(t, []CellState{CellFree, CellFree, CellFree, CellFree}, states(rows[1].Cells), "cancelled slot does not occupy the cell")

	assert.False(t, rows[0].Cells[1].Disabled)
	assert.True(t, rows[0].Cells[2].Disabled)
	require.NotNil(t, rows[0].Cells[1].Slot)
	assert.Equal(t, int64(1), rows[0].Cells[1].Slot.ID)
}

func TestReconcile_ClosedByTime(t *testing.T) {
	event := newEvent()
	slots := []*model.Slot{
		{ID: 1, EventID: 7, TeacherID: 100, ParentID: 1, StartTime: at(10, 0), EndTime: at(10, 15), Status: model.SlotStatusBooked},
		{ID: 2, EventID: 7, TeacherID: 100, ParentID: 2, StartTime: at(10, 15), EndTime: at(10, 30), Status: model.SlotStatusBooked},
	}

	rows := Reconcile(ReconcileInput{
		Event:    event,
		Grid:     Generate(event),
		Teachers: teachers()[1:],
		Slots:    slots,
		Viewer:   parent(1),
		Now:      at(10, 15),
	})

	require.Len(t, rows, 1)
	cells := rows[0].Cells
	assert.Equal(t, []CellState{CellMine, CellClosed, CellFree, CellFree}, states(cells))
	assert.True(t, cells[0].Disabled, "own booking in the past is not actionable")
	assert.True(t, cells[1].Disabled)
	assert.False(t, cells[2].Disabled)
}

func TestReconcile_NonParentNeverSeesMine(t *testing.T) {
	event := newEvent()
	slots := []*model.Slot{
		{ID: 1, EventID: 7, TeacherID: 100, ParentID: 1, StartTime: at(10, 0), EndTime: at(10, 15), Status: model.SlotStatusBooked},
	}
	admin := model.Identity{UserID: 1, SchoolID: 1, Role: model.RoleAdmin}

	rows := Reconcile(ReconcileInput{Event: event, Grid: Generate(event), Teachers: teachers()[1:], Slots: slots, Viewer: admin, Now: at(9, 0)})

	assert.Equal(t, CellTaken, rows[0].Cells[0].State)
}

func TestReconcile_DuplicatesPreferNewest(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	event := newEvent()
	older := &model.Slot{ID: 1, EventID: 7, TeacherID: 100, ParentID: 2, StartTime: at(10, 0), EndTime: at(10, 15), Status: model.SlotStatusBooked, CreatedAt: at(8, 0)}
	newest := &model.Slot{ID: 2, EventID: 7, TeacherID: 100, ParentID: 1, StartTime: at(10, 0), EndTime: at(10, 15), Status: model.SlotStatusBooked, CreatedAt: at(8, 30)}

	for _, order := range [][]*model.Slot{{older, newest}, {newest, older}} {
		rows := Reconcile(ReconcileInput{
			Event:    event,
			Grid:     Generate(event),
			Teachers: teachers()[1:],
			Slots:    order,
			Viewer:   parent(1),
			Now:      at(9, 0),
			Logger:   zap.New(core),
		})
		assert.Equal(t, CellMine, rows[0].Cells[0].State)
		assert.Equal(t, int64(2), rows[0].Cells[0].Slot.ID)
	}
	assert.Equal(t, 2, logs.FilterMessage("Duplicate active slot ignored").Len())
}

func TestReconcile_EmptyGrid(t *testing.T) {
	event := newEvent()
	event.ConsultationsCount = 0

	rows := Reconcile(ReconcileInput{Event: event, Grid: Generate(event), Teachers: teachers(), Viewer: parent(1), Now: at(9, 0)})

	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].Cells)
}

func TestReconcile_TeacherOrder(t *testing.T) {
	event := newEvent()
	event.TeacherIDs = []int64{5, 3, 4}
	list := []*model.User{
		{ID: 5, LastName: "иванова", FirstName: "Анна", Email: "a@school.test", Role: model.RoleTeacher},
		{ID: 3, LastName: "Иванова", FirstName: "Анна", Email: "b@school.test", Role: model.RoleTeacher},
		{ID: 4, LastName: "Иванова", FirstName: "Анна", Email: "a@school.test", Role: model.RoleTeacher},
	}

	rows := Reconcile(ReconcileInput{Event: event, Grid: Generate(event), Teachers: list, Viewer: parent(1), Now: at(9, 0)})

	require.Len(t, rows, 3)
	assert.Equal(t, int64(4), rows[0].Teacher.ID)
	assert.Equal(t, int64(5), rows[1].Teacher.ID)
	assert.Equal(t, int64(3), rows[2].Teacher.ID)
}
