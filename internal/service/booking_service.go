package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
)

type BookingService struct {
	repo     *repository.Repository
	policy   Policy
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	repo *repository.Repository,
	policy Policy,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// BookRequest - ячейка сетки, которую хочет занять родитель
type BookRequest struct {
	EventID   int64
	TeacherID int64
	Index     int
}

// BookResult - итог записи. AlreadyBooked: родитель уже записан в эту ячейку.
type BookResult struct {
	Slot          *model.Slot
	AlreadyBooked bool
}

// SlotRef адресует запись по ID либо по (мероприятие, учитель, индекс).
// Если заданы оба способа, они должны указывать на одну запись.
type SlotRef struct {
	SlotID    *int64
	EventID   *int64
	TeacherID *int64
	Index     *int
}

func (r SlotRef) hasCell() bool {
	return r.EventID != nil && r.TeacherID != nil && r.Index != nil
}

// EventSlotView - сетка записи на мероприятие глазами пользователя
type EventSlotView struct {
	Event     *model.Event
	Now       time.Time
	CanBook   bool
	IsOngoing bool
	Teachers  []schedule.TeacherSlots
}

type BookingPhase string

const (
	PhaseUpcoming BookingPhase = "upcoming"
	PhaseLive     BookingPhase = "live"
	PhasePast     BookingPhase = "past"
)

// BookingCard - запись родителя для списка "Мои записи"
type BookingCard struct {
	Slot      *model.Slot
	Event     *model.Event
	Teacher   *model.User
	Location  string
	Phase     BookingPhase
	CanCancel bool
}

// errCellRace - ячейку заняли между проверкой и вставкой
var errCellRace = errors.New("slot cell taken concurrently")

// Book записывает родителя к учителю на окно сетки
func (s *BookingService) Book(ctx context.Context, actor model.Identity, req BookRequest) (*BookResult, error) {
	if !s.policy.Allow(actor, ActionBookSlot, actor.SchoolID) {
		return nil, ErrForbidden
	}
	parentID, ok := actor.ParentID()
	if !ok {
		return nil, ErrForbidden
	}

	opID := uuid.NewString()
	now := s.now()

	var (
		event  *model.Event
		entry  schedule.Entry
		result *BookResult
	)

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		event, err = loadSchoolEvent(ctx, tx, actor, req.EventID)
		if err != nil {
			return err
		}

		if event.IsCancelled() {
			return ErrEventCancelled
		}
		if !event.HasTeacher(req.TeacherID) {
			return ErrTeacherNotInEvent
		}

		var found bool
		entry, found = schedule.Generate(event).At(req.Index)
		if !found {
			return ErrSlotIndexOutOfRange
		}
		if !entry.StartTime.After(now) {
			return ErrSlotClosed
		}

		existing, err := tx.Slots.FindActive(ctx, event.ID, req.TeacherID, entry.StartTime)
		if err != nil {
			return storageError("find slot", err)
		}
		if existing != nil {
			if existing.ParentID == parentID {
				result = &BookResult{Slot: existing, AlreadyBooked: true}
				return nil
			}
			return ErrSlotTaken
		}

		slot := &model.Slot{
			EventID:   event.ID,
			TeacherID: req.TeacherID,
			ParentID:  parentID,
			StartTime: entry.StartTime,
			EndTime:   entry.EndTime,
			Status:    model.SlotStatusBooked,
		}
		if err := tx.Slots.Create(ctx, slot); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errCellRace
			}
			return storageError("create slot", err)
		}

		result = &BookResult{Slot: slot}
		return nil
	})

	if errors.Is(err, errCellRace) {
		// Транзакция уже откатена; смотрим, кто победил в гонке
		return s.resolveRace(ctx, opID, parentID, event.ID, req.TeacherID, entry.StartTime)
	}
	if err != nil {
		return nil, s.fail(opID, "Booking rejected", err,
			zap.Int64("parent_id", parentID),
			zap.Int64("event_id", req.EventID),
			zap.Int64("teacher_id", req.TeacherID),
			zap.Int("index", req.Index),
		)
	}

	if result.AlreadyBooked {
		s.logger.Info("Slot already booked by parent",
			zap.String("op_id", opID),
			zap.Int64("slot_id", result.Slot.ID),
			zap.Int64("parent_id", parentID),
		)
		return result, nil
	}

	s.logger.Info("Slot booked",
		zap.String("op_id", opID),
		zap.Int64("slot_id", result.Slot.ID),
		zap.Int64("event_id", event.ID),
		zap.Int64("teacher_id", req.TeacherID),
		zap.Int64("parent_id", parentID),
		zap.Int("index", req.Index),
		zap.Time("start_time", result.Slot.StartTime),
	)

	s.notifier.SlotBooked(ctx, event, result.Slot)

	return result, nil
}

func (s *BookingService) resolveRace(ctx context.Context, opID string, parentID, eventID, teacherID int64, start time.Time) (*BookResult, error) {
	winner, err := s.repo.Slots.FindActive(ctx, eventID, teacherID, start)
	if err != nil {
		return nil, s.fail(opID, "Booking race lookup failed", storageError("find slot", err))
	}

	if winner != nil && winner.ParentID == parentID {
		return &BookResult{Slot: winner, AlreadyBooked: true}, nil
	}

	s.logger.Info("Booking lost race for slot",
		zap.String("op_id", opID),
		zap.Int64("event_id", eventID),
		zap.Int64("teacher_id", teacherID),
		zap.Int64("parent_id", parentID),
		zap.Time("start_time", start),
	)
	return nil, ErrSlotTaken
}

// Cancel отменяет запись родителя (запись удаляется)
func (s *BookingService) Cancel(ctx context.Context, actor model.Identity, ref SlotRef) (*model.Slot, error) {
	if !s.policy.Allow(actor, ActionCancelSlot, actor.SchoolID) {
		return nil, ErrForbidden
	}
	parentID, ok := actor.ParentID()
	if !ok {
		return nil, ErrForbidden
	}
	if ref.SlotID == nil && !ref.hasCell() {
		return nil, invalid("slot reference is empty")
	}

	opID := uuid.NewString()
	now := s.now()

	var (
		slot  *model.Slot
		event *model.Event
	)

	err := s.repo.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		slot, err = s.resolveSlot(ctx, tx, actor, ref)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		if slot.ParentID != parentID {
			return ErrNotSlotOwner
		}
		if !slot.StartTime.After(now) {
			return ErrTooLateToCancel
		}

		event, err = tx.Events.GetByID(ctx, slot.EventID)
		if err != nil {
			return storageError("get event", err)
		}

		if err := tx.Slots.Delete(ctx, slot.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSlotNotFound
			}
			return storageError("delete slot", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(opID, "Cancellation rejected", err, zap.Int64("parent_id", parentID))
	}

	s.logger.Info("Slot cancelled",
		zap.String("op_id", opID),
		zap.Int64("slot_id", slot.ID),
		zap.Int64("event_id", slot.EventID),
		zap.Int64("teacher_id", slot.TeacherID),
		zap.Int64("parent_id", parentID),
	)

	if event != nil {
		s.notifier.SlotCancelled(ctx, event, slot)
	}

	return slot, nil
}

// resolveSlot находит и блокирует запись. nil - запись не найдена.
func (s *BookingService) resolveSlot(ctx context.Context, tx *repository.Repository, actor model.Identity, ref SlotRef) (*model.Slot, error) {
	var byID *model.Slot
	if ref.SlotID != nil {
		slot, err := tx.Slots.GetByIDForUpdate(ctx, *ref.SlotID)
		if err != nil {
			return nil, storageError("get slot", err)
		}
		if slot == nil || !slot.IsActive() {
			return nil, nil
		}
		if ref.EventID != nil && slot.EventID != *ref.EventID {
			return nil, nil
		}
		byID = slot
	}

	if !ref.hasCell() {
		return byID, nil
	}

	event, err := loadSchoolEvent(ctx, tx, actor, *ref.EventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entry, ok := schedule.Generate(event).At(*ref.Index)
	if !ok {
		return nil, nil
	}

	byCell, err := tx.Slots.FindActive(ctx, event.ID, *ref.TeacherID, entry.StartTime)
	if err != nil {
		return nil, storageError("find slot", err)
	}
	if byCell == nil {
		return nil, nil
	}

	if byID != nil {
		if byID.ID != byCell.ID {
			return nil, nil
		}
		return byID, nil
	}

	locked, err := tx.Slots.GetByIDForUpdate(ctx, byCell.ID)
	if err != nil {
		return nil, storageError("get slot", err)
	}
	if locked == nil || !locked.IsActive() {
		return nil, nil
	}
	return locked, nil
}

// SlotView строит сетку записи на мероприятие
func (s *BookingService) SlotView(ctx context.Context, actor model.Identity, eventID int64) (*EventSlotView, error) {
	if !s.policy.Allow(actor, ActionViewSlots, actor.SchoolID) {
		return nil, ErrForbidden
	}

	now := s.now()

	event, err := loadSchoolEvent(ctx, s.repo, actor, eventID)
	if err != nil {
		return nil, err
	}

	view := &EventSlotView{
		Event:     event,
		Now:       now,
		CanBook:   now.Before(event.EndTime) && !event.IsCancelled(),
		IsOngoing: !now.Before(event.StartTime) && now.Before(event.EndTime),
	}

	grid := schedule.Generate(event)
	if len(grid) == 0 {
		return view, nil
	}

	slots, err := s.repo.Slots.ListActiveForEvent(ctx, event.ID)
	if err != nil {
		return nil, storageError("list slots", err)
	}

	teachers, err := s.repo.Users.GetByIDs(ctx, event.TeacherIDs)
	if err != nil {
		return nil, storageError("get teachers", err)
	}

	view.Teachers = schedule.Reconcile(schedule.ReconcileInput{
		Event:    event,
		Grid:     grid,
		Teachers: teachers,
		Slots:    slots,
		Viewer:   actor,
		Now:      now,
		Logger:   s.logger,
	})

	return view, nil
}

// ParentBookings возвращает действующие записи родителя
func (s *BookingService) ParentBookings(ctx context.Context, actor model.Identity) ([]BookingCard, error) {
	if !s.policy.Allow(actor, ActionViewSlots, actor.SchoolID) {
		return nil, ErrForbidden
	}
	parentID, ok := actor.ParentID()
	if !ok {
		return nil, ErrForbidden
	}

	now := s.now()

	slots, err := s.repo.Slots.ListActiveForParent(ctx, parentID)
	if err != nil {
		return nil, storageError("list parent slots", err)
	}
	if len(slots) == 0 {
		return nil, nil
	}

	var eventIDs, teacherIDs []int64
	for _, slot := range slots {
		eventIDs = append(eventIDs, slot.EventID)
		teacherIDs = append(teacherIDs, slot.TeacherID)
	}
	eventIDs = uniqueIDs(eventIDs)

	eventList, err := s.repo.Events.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, storageError("get events", err)
	}
	events := make(map[int64]*model.Event, len(eventList))
	for _, event := range eventList {
		events[event.ID] = event
	}

	teachers, err := s.repo.Users.GetByIDs(ctx, uniqueIDs(teacherIDs))
	if err != nil {
		return nil, storageError("get teachers", err)
	}
	teacherByID := make(map[int64]*model.User, len(teachers))
	for _, t := range teachers {
		teacherByID[t.ID] = t
	}

	rooms, err := s.repo.Buildings.ListBookingsForEvents(ctx, eventIDs)
	if err != nil {
		return nil, storageError("list rooms", err)
	}
	type roomKey struct{ eventID, teacherID int64 }
	roomByKey := make(map[roomKey]*model.BuildingBooking, len(rooms))
	for _, room := range rooms {
		roomByKey[roomKey{room.EventID, room.TeacherID}] = room
	}

	cards := make([]BookingCard, 0, len(slots))
	for _, slot := range slots {
		event := events[slot.EventID]
		teacher := teacherByID[slot.TeacherID]
		if event == nil || teacher == nil {
			continue
		}

		card := BookingCard{
			Slot:      slot,
			Event:     event,
			Teacher:   teacher,
			Phase:     phaseAt(slot, now),
			CanCancel: slot.StartTime.After(now),
		}
		if room := roomByKey[roomKey{slot.EventID, slot.TeacherID}]; room != nil {
			card.Location = room.LocationLabel()
		}
		cards = append(cards, card)
	}

	return cards, nil
}

func phaseAt(slot *model.Slot, now time.Time) BookingPhase {
	switch {
	case slot.StartTime.After(now):
		return PhaseUpcoming
	case now.Before(slot.EndTime):
		return PhaseLive
	default:
		return PhasePast
	}
}

// fail логирует отказ: ожидаемые отказы - Info, сбои хранилища - Error
func (s *BookingService) fail(opID, msg string, err error, fields ...zap.Field) error {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		err = storageError("transaction", err)
	}

	fields = append(fields, zap.String("op_id", opID), zap.Error(err))
	if IsRetryable(err) {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Info(msg, fields...)
	}
	return err
}

// loadSchoolEvent получает мероприятие школы пользователя
func loadSchoolEvent(ctx context.Context, repo *repository.Repository, actor model.Identity, eventID int64) (*model.Event, error) {
	event, err := repo.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storageError("get event", err)
	}
	if event == nil || event.SchoolID != actor.SchoolID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
