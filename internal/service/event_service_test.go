package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

func TestEventService_RefreshStatuses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 10:00 - 12:00: 4 консультации по 30 минут
	env.events.put(&model.Event{
		ID:                          eventID,
		SchoolID:                    schoolID,
		Name:                        "Собрание",
		StartTime:                   at(10, 0),
		EndTime:                     at(12, 0),
		Status:                      model.EventStatusScheduled,
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 30,
		TeacherIDs:                  []int64{teacherAnnaID},
	})

	steps := []struct {
		ref        int
		want       model.EventStatus
		wantWrites int
	}{
		{ref: 9, want: model.EventStatusScheduled, wantWrites: 0},
		{ref: 11, want: model.EventStatusOngoing, wantWrites: 1},
		{ref: 11, want: model.EventStatusOngoing, wantWrites: 1},
		{ref: 13, want: model.EventStatusCompleted, wantWrites: 2},
	}

	for _, step := range steps {
		ref := at(step.ref, 0)
		require.NoError(t, env.event.RefreshStatuses(ctx, schoolID, &ref))

		event, err := env.events.GetByID(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, step.want, event.Status, "at %02d:00", step.ref)
		assert.Equal(t, step.wantWrites, env.events.writes(), "at %02d:00", step.ref)
	}
}

func TestEventService_RefreshStatuses_CancelledIsSticky(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.events.UpdateStatus(ctx, eventID, model.EventStatusCancelled))

	for _, hour := range []int{9, 10, 13} {
		ref := at(hour, 0)
		require.NoError(t, env.event.RefreshStatuses(ctx, schoolID, &ref))
	}

	event, err := env.events.GetByID(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCancelled, event.Status)
	assert.Equal(t, 1, env.events.writes())
}

func TestEventService_RefreshAll(t *testing.T) {
	env := newTestEnv()
	env.events.put(&model.Event{
		ID:                          200,
		SchoolID:                    otherSchoolID,
		Name:                        "Другая школа",
		StartTime:                   at(8, 0),
		EndTime:                     at(8, 30),
		Status:                      model.EventStatusScheduled,
		ConsultationsCount:          2,
		ConsultationDurationMinutes: 15,
	})

	env.clock.now = at(10, 10)
	require.NoError(t, env.event.RefreshAll(context.Background()))

	ours, _ := env.events.GetByID(context.Background(), eventID)
	theirs, _ := env.events.GetByID(context.Background(), 200)
	assert.Equal(t, model.EventStatusOngoing, ours.Status)
	assert.Equal(t, model.EventStatusCompleted, theirs.Status)
}

func TestEventService_ClosestEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Идёт сейчас (10:00 - 11:00) и запланировано позже
	env.events.put(&model.Event{
		ID:                          101,
		SchoolID:                    schoolID,
		Name:                        "Вечер",
		StartTime:                   at(15, 0),
		EndTime:                     at(16, 0),
		Status:                      model.EventStatusScheduled,
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 15,
	})

	env.clock.now = at(10, 30)
	closest, err := env.event.ClosestEvent(ctx, schoolID, false)
	require.NoError(t, err)
	require.NotNil(t, closest)
	assert.Equal(t, eventID, closest.ID)
	assert.Equal(t, model.EventStatusOngoing, closest.Status)

	env.clock.now = at(12, 0)
	closest, err = env.event.ClosestEvent(ctx, schoolID, false)
	require.NoError(t, err)
	require.NotNil(t, closest)
	assert.Equal(t, int64(101), closest.ID)

	env.clock.now = at(17, 0)
	closest, err = env.event.ClosestEvent(ctx, schoolID, false)
	require.NoError(t, err)
	assert.Nil(t, closest)

	closest, err = env.event.ClosestEvent(ctx, schoolID, true)
	require.NoError(t, err)
	require.NotNil(t, closest)
	assert.Equal(t, model.EventStatusCompleted, closest.Status)
}

func TestEventService_ListForTeacher(t *testing.T) {
	env := newTestEnv()

	events, err := env.event.ListForTeacher(context.Background(), identity(teacherBorisID, schoolID, model.RoleTeacher))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventID, events[0].ID)

	_, err = env.event.ListForTeacher(context.Background(), parent())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_Create(t *testing.T) {
	env := newTestEnv()

	event, err := env.event.Create(context.Background(), admin(), EventInput{
		Name:                        "  Весенние консультации  ",
		StartTime:                   at(14, 0),
		ConsultationsCount:          6,
		ConsultationDurationMinutes: 20,
		TeacherIDs:                  []int64{teacherAnnaID, teacherAnnaID, teacherBorisID},
	})
	require.NoError(t, err)

	assert.NotZero(t, event.ID)
	assert.Equal(t, schoolID, event.SchoolID)
	assert.Equal(t, "Весенние консультации", event.Name)
	assert.Equal(t, at(16, 0), event.EndTime)
	assert.Equal(t, model.EventStatusScheduled, event.Status)
	assert.Equal(t, []int64{teacherAnnaID, teacherBorisID}, event.TeacherIDs)
}

func TestEventService_Create_Validation(t *testing.T) {
	valid := EventInput{
		Name:                        "Консультации",
		StartTime:                   at(14, 0),
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 15,
		TeacherIDs:                  []int64{teacherAnnaID},
	}

	tests := []struct {
		name   string
		modify func(in *EventInput)
	}{
		{name: "blank name", modify: func(in *EventInput) { in.Name = "   " }},
		{name: "name too long", modify: func(in *EventInput) { in.Name = strings.Repeat("я", 121) }},
		{name: "zero count", modify: func(in *EventInput) { in.ConsultationsCount = 0 }},
		{name: "zero duration", modify: func(in *EventInput) { in.ConsultationDurationMinutes = 0 }},
		{name: "missing start", modify: func(in *EventInput) { in.StartTime = time.Time{} }},
		{name: "teacher of another school", modify: func(in *EventInput) { in.TeacherIDs = []int64{teacherOtherID} }},
		{name: "no teachers", modify: func(in *EventInput) { in.TeacherIDs = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			in := valid
			in.TeacherIDs = append([]int64(nil), valid.TeacherIDs...)
			tt.modify(&in)

			event, err := env.event.Create(context.Background(), admin(), in)

			assert.Nil(t, event)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestEventService_Create_NameAtLimit(t *testing.T) {
	env := newTestEnv()

	event, err := env.event.Create(context.Background(), admin(), EventInput{
		Name:                        strings.Repeat("я", 120),
		StartTime:                   at(14, 0),
		ConsultationsCount:          1,
		ConsultationDurationMinutes: 1,
		TeacherIDs:                  []int64{teacherAnnaID},
	})

	require.NoError(t, err)
	assert.Equal(t, at(14, 1), event.EndTime)
}

func TestEventService_Create_OnlyAdmin(t *testing.T) {
	env := newTestEnv()

	_, err := env.event.Create(context.Background(), parent(), EventInput{Name: "x"})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEventService_Update(t *testing.T) {
	env := newTestEnv()
	book(t, env, parent(), teacherAnnaID, 1)

	base := EventInput{
		Name:                        "Родительский день",
		StartTime:                   at(10, 0),
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 15,
		TeacherIDs:                  []int64{teacherAnnaID, teacherBorisID},
	}

	t.Run("grid change with bookings", func(t *testing.T) {
		in := base
		in.StartTime = at(10, 30)
		_, err := env.event.Update(context.Background(), admin(), eventID, in)
		assert.ErrorIs(t, err, ErrEventHasBookings)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("duration change with bookings", func(t *testing.T) {
		in := base
		in.ConsultationDurationMinutes = 20
		_, err := env.event.Update(context.Background(), admin(), eventID, in)
		assert.ErrorIs(t, err, ErrEventHasBookings)
	})

	t.Run("removing booked teacher", func(t *testing.T) {
		in := base
		in.TeacherIDs = []int64{teacherBorisID}
		_, err := env.event.Update(context.Background(), admin(), eventID, in)
		assert.ErrorIs(t, err, ErrEventHasBookings)
	})

	t.Run("rename and drop free teacher", func(t *testing.T) {
		in := base
		in.Name = "Новое название"
		in.TeacherIDs = []int64{teacherAnnaID}
		event, err := env.event.Update(context.Background(), admin(), eventID, in)
		require.NoError(t, err)
		assert.Equal(t, "Новое название", event.Name)
		assert.Equal(t, []int64{teacherAnnaID}, event.TeacherIDs)
	})
}

func TestEventService_Update_RecomputesStatus(t *testing.T) {
	env := newTestEnv()
	env.clock.now = at(10, 30)

	event, err := env.event.Update(context.Background(), admin(), eventID, EventInput{
		Name:                        "Перенос",
		StartTime:                   at(10, 0),
		ConsultationsCount:          8,
		ConsultationDurationMinutes: 15,
		TeacherIDs:                  []int64{teacherAnnaID},
	})

	require.NoError(t, err)
	assert.Equal(t, at(12, 0), event.EndTime)
	assert.Equal(t, model.EventStatusOngoing, event.Status)
}

func TestEventService_Cancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	book(t, env, parent(), teacherAnnaID, 0)
	book(t, env, otherParent(), teacherBorisID, 3)

	event, err := env.event.Cancel(ctx, admin(), eventID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCancelled, event.Status)
	assert.Len(t, env.notifier.voided, 2)

	active, err := env.slots.ListActiveForEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = env.booking.Book(ctx, parent(), BookRequest{EventID: eventID, TeacherID: teacherAnnaID, Index: 1})
	assert.ErrorIs(t, err, ErrEventCancelled)

	// Повторная отмена ничего не меняет
	_, err = env.event.Cancel(ctx, admin(), eventID)
	require.NoError(t, err)
	assert.Len(t, env.notifier.voided, 2)
}

func TestEventService_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	err := env.event.Delete(ctx, identity(adminID, otherSchoolID, model.RoleAdmin), eventID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	require.NoError(t, env.event.Delete(ctx, admin(), eventID))

	event, err := env.events.GetByID(ctx, eventID)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestEventService_Stats(t *testing.T) {
	env := newTestEnv()
	book(t, env, parent(), teacherAnnaID, 0)
	book(t, env, parent(), teacherBorisID, 1)
	book(t, env, otherParent(), teacherBorisID, 2)

	stats, err := env.event.Stats(context.Background(), admin(), eventID)
	require.NoError(t, err)

	assert.Equal(t, EventStats{Bookings: 3, Teachers: 2, Parents: 2}, *stats)
}

func TestEventService_AssignRoom(t *testing.T) {
	env := newTestEnv()
	env.buildings.buildings[1] = &model.Building{ID: 1, SchoolID: schoolID, Name: "Корпус А"}
	env.buildings.buildings[2] = &model.Building{ID: 2, SchoolID: otherSchoolID, Name: "Чужой корпус"}

	tests := []struct {
		name    string
		in      BuildingAssignment
		wantErr error
	}{
		{
			name: "assigned",
			in:   BuildingAssignment{EventID: eventID, TeacherID: teacherAnnaID, BuildingID: 1, Classroom: "204"},
		},
		{
			name:    "building of another school",
			in:      BuildingAssignment{EventID: eventID, TeacherID: teacherAnnaID, BuildingID: 2},
			wantErr: ErrBuildingNotFound,
		},
		{
			name:    "teacher not in event",
			in:      BuildingAssignment{EventID: eventID, TeacherID: teacherOtherID, BuildingID: 1},
			wantErr: ErrTeacherNotInEvent,
		},
		{
			name:    "classroom too long",
			in:      BuildingAssignment{EventID: eventID, TeacherID: teacherAnnaID, BuildingID: 1, Classroom: "12345678901"},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking, err := env.event.AssignRoom(context.Background(), admin(), tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Корпус А, ауд. 204", booking.LocationLabel())
		})
	}
}
