package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

const (
	schoolID      int64 = 1
	otherSchoolID int64 = 2

	adminID        int64 = 1
	teacherAnnaID  int64 = 10
	teacherBorisID int64 = 11
	teacherOtherID int64 = 12
	parentID       int64 = 20
	otherParentID  int64 = 21
	foreignParent  int64 = 30

	eventID int64 = 100
)

// at возвращает момент 1 января 2025 (UTC)
func at(hour, minute int) time.Time {
	return time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testEnv struct {
	repo      *repository.Repository
	events    *mockEventRepo
	slots     *mockSlotRepo
	users     *mockUserRepo
	buildings *mockBuildingRepo
	notifier  *recordingNotifier
	clock     *testClock

	booking *BookingService
	event   *EventService
	user    *UserService
}

func ptr[T any](v T) *T { return &v }

func newTestEnv() *testEnv {
	env := &testEnv{
		events:    newMockEventRepo(),
		slots:     newMockSlotRepo(),
		users:     newMockUserRepo(),
		buildings: newMockBuildingRepo(),
		notifier:  &recordingNotifier{},
		clock:     &testClock{now: at(9, 0)},
	}
	env.repo = &repository.Repository{
		Events:    env.events,
		Slots:     env.slots,
		Users:     env.users,
		Buildings: env.buildings,
	}

	env.users.put(&model.User{ID: adminID, SchoolID: ptr(schoolID), Role: model.RoleAdmin, Email: "admin@school.test"})
	env.users.put(&model.User{ID: teacherAnnaID, SchoolID: ptr(schoolID), Role: model.RoleTeacher, LastName: "Иванова", FirstName: "Анна"})
	env.users.put(&model.User{ID: teacherBorisID, SchoolID: ptr(schoolID), Role: model.RoleTeacher, LastName: "Петров", FirstName: "Борис"})
	env.users.put(&model.User{ID: teacherOtherID, SchoolID: ptr(otherSchoolID), Role: model.RoleTeacher, LastName: "Сидоров"})
	env.users.put(&model.User{ID: parentID, SchoolID: ptr(schoolID), Role: model.RoleParent, LastName: "Смирнова", TelegramID: ptr(int64(5001))})
	env.users.put(&model.User{ID: otherParentID, SchoolID: ptr(schoolID), Role: model.RoleParent, LastName: "Кузнецов"})
	env.users.put(&model.User{ID: foreignParent, SchoolID: ptr(otherSchoolID), Role: model.RoleParent, LastName: "Орлов"})

	// 4 консультации по 15 минут с 10:00
	env.events.put(&model.Event{
		ID:                          eventID,
		SchoolID:                    schoolID,
		Name:                        "Родительский день",
		StartTime:                   at(10, 0),
		EndTime:                     at(11, 0),
		Status:                      model.EventStatusScheduled,
		ConsultationsCount:          4,
		ConsultationDurationMinutes: 15,
		TeacherIDs:                  []int64{teacherAnnaID, teacherBorisID},
	})

	env.booking = NewBookingService(env.repo, RolePolicy{}, env.notifier, zap.NewNop())
	env.booking.now = env.clock.Now
	env.event = NewEventService(env.repo, RolePolicy{}, env.notifier, zap.NewNop())
	env.event.now = env.clock.Now
	env.user = NewUserService(env.repo, RolePolicy{}, zap.NewNop())

	return env
}

func identity(userID, school int64, role model.Role) model.Identity {
	return model.Identity{UserID: userID, SchoolID: school, Role: role}
}

func admin() model.Identity { return identity(adminID, schoolID, model.RoleAdmin) }
func parent() model.Identity { return identity(parentID, schoolID, model.RoleParent) }
func otherParent() model.Identity { return identity(otherParentID, schoolID, model.RoleParent) }
