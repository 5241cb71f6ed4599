package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
)

const (
	maxEventNameLength = 120
	maxClassroomLength = 10
)

type EventService struct {
	repo     *repository.Repository
	policy   Policy
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewEventService(
	repo *repository.Repository,
	policy Policy,
	notifier Notifier,
	logger *zap.Logger,
) *EventService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &EventService{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// EventInput - поля мероприятия, которые задаёт администратор
type EventInput struct {
	Name                        string
	StartTime                   time.Time
	ConsultationsCount          int
	ConsultationDurationMinutes int
	TeacherIDs                  []int64
}

// EventStats - сводка по записям на мероприятие
type EventStats struct {
	Bookings int
	Teachers int
	Parents  int
}

// BuildingAssignment - кабинет учителя на мероприятии
type BuildingAssignment struct {
	EventID    int64
	TeacherID  int64
	BuildingID int64
	Classroom  string
}

// RefreshStatuses пересчитывает статусы мероприятий школы на момент ref
// (по умолчанию - сейчас). Записываются только изменившиеся статусы.
func (s *EventService) RefreshStatuses(ctx context.Context, schoolID int64, ref *time.Time) error {
	now := s.now()
	if ref != nil {
		now = *ref
	}

	_, err := s.refresh(ctx, schoolID, now)
	return err
}

func (s *EventService) refresh(ctx context.Context, schoolID int64, now time.Time) ([]*model.Event, error) {
	var events []*model.Event
	changed := 0

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		events, err = tx.Events.ListForSchool(ctx, schoolID)
		if err != nil {
			return storageError("list events", err)
		}

		for _, event := range events {
			status := schedule.StatusAt(event, now)
			if status == event.Status {
				continue
			}
			if err := tx.Events.UpdateStatus(ctx, event.ID, status); err != nil {
				return storageError("update event status", err)
			}
			event.Status = status
			changed++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to refresh event statuses",
			zap.Int64("school_id", schoolID),
			zap.Error(err),
		)
		return nil, err
	}

	if changed > 0 {
		s.logger.Info("Event statuses refreshed",
			zap.Int64("school_id", schoolID),
			zap.Int("changed", changed),
		)
		schedule.SortEvents(events)
	}

	return events, nil
}

// RefreshAll обновляет статусы во всех школах; используется фоновым планировщиком
func (s *EventService) RefreshAll(ctx context.Context) error {
	schoolIDs, err := s.repo.Events.ListSchoolIDs(ctx)
	if err != nil {
		return storageError("list schools", err)
	}

	now := s.now()
	var errs []error
	for _, schoolID := range schoolIDs {
		if _, err := s.refresh(ctx, schoolID, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClosestEvent возвращает мероприятие школы, актуальное для записи.
// nil - подходящих мероприятий нет.
func (s *EventService) ClosestEvent(ctx context.Context, schoolID int64, includePast bool) (*model.Event, error) {
	now := s.now()

	events, err := s.refresh(ctx, schoolID, now)
	if err != nil {
		return nil, err
	}

	return schedule.Closest(events, now, includePast), nil
}

// ListForSchool возвращает мероприятия школы пользователя
func (s *EventService) ListForSchool(ctx context.Context, actor model.Identity) ([]*model.Event, error) {
	if !s.policy.Allow(actor, ActionListEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	return s.refresh(ctx, actor.SchoolID, s.now())
}

// ListForTeacher возвращает мероприятия, в которых участвует учитель
func (s *EventService) ListForTeacher(ctx context.Context, actor model.Identity) ([]*model.Event, error) {
	if !s.policy.Allow(actor, ActionTeacherEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}
	teacherID, ok := actor.TeacherID()
	if !ok {
		return nil, ErrForbidden
	}

	if _, err := s.refresh(ctx, actor.SchoolID, s.now()); err != nil {
		return nil, err
	}

	events, err := s.repo.Events.ListForTeacher(ctx, teacherID)
	if err != nil {
		return nil, storageError("list teacher events", err)
	}

	return events, nil
}

// Create создаёт мероприятие
func (s *EventService) Create(ctx context.Context, actor model.Identity, in EventInput) (*model.Event, error) {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	opID := uuid.NewString()
	now := s.now()

	var event *model.Event
	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		fields, err := s.validate(ctx, tx, actor.SchoolID, in)
		if err != nil {
			return err
		}

		event = fields
		event.SchoolID = actor.SchoolID
		event.Status = schedule.StatusAt(event, now)

		if err := tx.Events.Create(ctx, event); err != nil {
			return storageError("create event", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Info("Event creation rejected",
			zap.String("op_id", opID),
			zap.Int64("school_id", actor.SchoolID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Event created",
		zap.String("op_id", opID),
		zap.Int64("event_id", event.ID),
		zap.Int64("school_id", event.SchoolID),
		zap.Int("consultations", event.ConsultationsCount),
		zap.Int("teachers", len(event.TeacherIDs)),
	)

	return event, nil
}

// Update изменяет мероприятие. Пока есть действующие записи, сетку
// (начало, количество, длительность) менять нельзя, как и убирать
// учителей, к которым записаны родители.
func (s *EventService) Update(ctx context.Context, actor model.Identity, eventID int64, in EventInput) (*model.Event, error) {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	opID := uuid.NewString()
	now := s.now()

	var event *model.Event
	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		current, err := loadSchoolEvent(ctx, tx, actor, eventID)
		if err != nil {
			return err
		}

		updated, err := s.validate(ctx, tx, actor.SchoolID, in)
		if err != nil {
			return err
		}

		active, err := tx.Slots.ListActiveForEvent(ctx, current.ID)
		if err != nil {
			return storageError("list slots", err)
		}
		if len(active) > 0 {
			if gridChanged(current, updated) {
				return ErrEventHasBookings
			}
			for _, slot := range active {
				if !updated.HasTeacher(slot.TeacherID) {
					return ErrEventHasBookings
				}
			}
		}

		updated.ID = current.ID
		updated.SchoolID = current.SchoolID
		updated.CreatedAt = current.CreatedAt
		updated.Status = current.Status

		if err := tx.Events.Update(ctx, updated); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return storageError("update event", err)
		}

		if status := schedule.StatusAt(updated, now); status != updated.Status {
			if err := tx.Events.UpdateStatus(ctx, updated.ID, status); err != nil {
				return storageError("update event status", err)
			}
			updated.Status = status
		}

		event = updated
		return nil
	})
	if err != nil {
		s.logger.Info("Event update rejected",
			zap.String("op_id", opID),
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Event updated",
		zap.String("op_id", opID),
		zap.Int64("event_id", event.ID),
		zap.String("status", string(event.Status)),
	)

	return event, nil
}

func gridChanged(current, updated *model.Event) bool {
	return !current.StartTime.Equal(updated.StartTime) ||
		current.ConsultationsCount != updated.ConsultationsCount ||
		current.ConsultationDurationMinutes != updated.ConsultationDurationMinutes
}

// Cancel отменяет мероприятие и аннулирует все его записи
func (s *EventService) Cancel(ctx context.Context, actor model.Identity, eventID int64) (*model.Event, error) {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	opID := uuid.NewString()

	var (
		event  *model.Event
		voided []*model.Slot
	)
	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		event, err = loadSchoolEvent(ctx, tx, actor, eventID)
		if err != nil {
			return err
		}
		if event.IsCancelled() {
			return nil
		}

		if err := tx.Events.UpdateStatus(ctx, event.ID, model.EventStatusCancelled); err != nil {
			return storageError("cancel event", err)
		}
		event.Status = model.EventStatusCancelled

		voided, err = tx.Slots.VoidForEvent(ctx, event.ID)
		if err != nil {
			return storageError("void slots", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Info("Event cancellation rejected",
			zap.String("op_id", opID),
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Event cancelled",
		zap.String("op_id", opID),
		zap.Int64("event_id", event.ID),
		zap.Int("voided_slots", len(voided)),
	)

	if len(voided) > 0 {
		s.notifier.SlotsVoided(ctx, event, voided)
	}

	return event, nil
}

// Delete удаляет мероприятие вместе с записями
func (s *EventService) Delete(ctx context.Context, actor model.Identity, eventID int64) error {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return ErrForbidden
	}

	event, err := loadSchoolEvent(ctx, s.repo, actor, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.Events.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return storageError("delete event", err)
	}

	s.logger.Info("Event deleted",
		zap.Int64("event_id", event.ID),
		zap.Int64("school_id", event.SchoolID),
	)

	return nil
}

// Stats считает действующие записи, учителей и родителей мероприятия
func (s *EventService) Stats(ctx context.Context, actor model.Identity, eventID int64) (*EventStats, error) {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	event, err := loadSchoolEvent(ctx, s.repo, actor, eventID)
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.Slots.ListActiveForEvent(ctx, event.ID)
	if err != nil {
		return nil, storageError("list slots", err)
	}

	teachers := make(map[int64]struct{})
	parents := make(map[int64]struct{})
	for _, slot := range slots {
		teachers[slot.TeacherID] = struct{}{}
		parents[slot.ParentID] = struct{}{}
	}

	return &EventStats{
		Bookings: len(slots),
		Teachers: len(teachers),
		Parents:  len(parents),
	}, nil
}

// AssignRoom назначает учителю здание и кабинет на мероприятии
func (s *EventService) AssignRoom(ctx context.Context, actor model.Identity, in BuildingAssignment) (*model.BuildingBooking, error) {
	if !s.policy.Allow(actor, ActionManageEvents, actor.SchoolID) {
		return nil, ErrForbidden
	}

	classroom := strings.TrimSpace(in.Classroom)
	if utf8.RuneCountInString(classroom) > maxClassroomLength {
		return nil, invalid("classroom is too long")
	}

	event, err := loadSchoolEvent(ctx, s.repo, actor, in.EventID)
	if err != nil {
		return nil, err
	}
	if !event.HasTeacher(in.TeacherID) {
		return nil, ErrTeacherNotInEvent
	}

	building, err := s.repo.Buildings.GetByID(ctx, in.BuildingID)
	if err != nil {
		return nil, storageError("get building", err)
	}
	if building == nil || building.SchoolID != actor.SchoolID {
		return nil, ErrBuildingNotFound
	}

	booking := &model.BuildingBooking{
		EventID:    event.ID,
		TeacherID:  in.TeacherID,
		BuildingID: building.ID,
		Building:   building,
	}
	if classroom != "" {
		booking.Classroom = &classroom
	}

	if err := s.repo.Buildings.UpsertBooking(ctx, booking); err != nil {
		return nil, storageError("assign room", err)
	}

	s.logger.Info("Room assigned",
		zap.Int64("event_id", event.ID),
		zap.Int64("teacher_id", in.TeacherID),
		zap.Int64("building_id", building.ID),
	)

	return booking, nil
}

// validate проверяет поля мероприятия и собирает все нарушения сразу
func (s *EventService) validate(ctx context.Context, tx *repository.Repository, schoolID int64, in EventInput) (*model.Event, error) {
	var errs []error

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs = append(errs, invalid("event name is required"))
	case utf8.RuneCountInString(name) > maxEventNameLength:
		errs = append(errs, invalid("event name is too long"))
	}

	if in.StartTime.IsZero() {
		errs = append(errs, invalid("start time is required"))
	}
	if in.ConsultationsCount < 1 {
		errs = append(errs, invalid("consultations count must be at least 1"))
	}
	if in.ConsultationDurationMinutes < 1 {
		errs = append(errs, invalid("consultation duration must be at least 1 minute"))
	}

	schoolTeachers, err := tx.Users.ListTeachersBySchool(ctx, schoolID)
	if err != nil {
		return nil, storageError("list teachers", err)
	}
	known := make(map[int64]struct{}, len(schoolTeachers))
	for _, t := range schoolTeachers {
		known[t.ID] = struct{}{}
	}

	teacherIDs := uniqueIDs(in.TeacherIDs)
	for _, id := range teacherIDs {
		if _, ok := known[id]; !ok {
			errs = append(errs, invalid("teacher does not belong to the school"))
			break
		}
	}
	if len(schoolTeachers) > 0 && len(teacherIDs) == 0 {
		errs = append(errs, invalid("select at least one teacher"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	event := &model.Event{
		Name:                        name,
		StartTime:                   in.StartTime,
		ConsultationsCount:          in.ConsultationsCount,
		ConsultationDurationMinutes: in.ConsultationDurationMinutes,
		TeacherIDs:                  teacherIDs,
	}
	event.EndTime = event.ExpectedEnd()

	return event, nil
}
