package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
)

// ==================== Mock EventRepository ====================

type mockEventRepo struct {
	mu           sync.Mutex
	events       map[int64]*model.Event
	nextID       int64
	statusWrites int
	singleReads  int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[int64]*model.Event), nextID: 1000}
}

func cloneEvent(e *model.Event) *model.Event {
	c := *e
	c.TeacherIDs = append([]int64(nil), e.TeacherIDs...)
	return &c
}

func (m *mockEventRepo) put(e *model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = cloneEvent(e)
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	event.CreatedAt = time.Now()
	if event.Status == "" {
		event.Status = model.EventStatusScheduled
	}
	m.events[event.ID] = cloneEvent(event)
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.singleReads++
	if e, ok := m.events[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, nil
}

func (m *mockEventRepo) GetByIDs(_ context.Context, ids []int64) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListForSchool(_ context.Context, schoolID int64) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Event
	for _, e := range m.events {
		if e.SchoolID == schoolID {
			result = append(result, cloneEvent(e))
		}
	}
	schedule.SortEvents(result)
	return result, nil
}

func (m *mockEventRepo) ListForTeacher(_ context.Context, teacherID int64) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Event
	for _, e := range m.events {
		if e.HasTeacher(teacherID) {
			result = append(result, cloneEvent(e))
		}
	}
	schedule.SortEvents(result)
	return result, nil
}

func (m *mockEventRepo) ListSchoolIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]struct{})
	var ids []int64
	for _, e := range m.events {
		if _, ok := seen[e.SchoolID]; !ok {
			seen[e.SchoolID] = struct{}{}
			ids = append(ids, e.SchoolID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneEvent(event)
	updated.Status = current.Status
	m.events[event.ID] = updated
	return nil
}

func (m *mockEventRepo) UpdateStatus(_ context.Context, id int64, status model.EventStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	m.statusWrites++
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusWrites
}

// ==================== Mock SlotRepository ====================

// mockSlotRepo повторяет частичный уникальный индекс по действующим записям
type mockSlotRepo struct {
	mu        sync.Mutex
	slots     map[int64]*model.Slot
	nextID    int64
	seq       time.Time
	createErr error
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{
		slots: make(map[int64]*model.Slot),
		seq:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func cloneSlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

func (m *mockSlotRepo) Create(_ context.Context, slot *model.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if slot.Status == "" {
		slot.Status = model.SlotStatusBooked
	}
	for _, s := range m.slots {
		if s.IsActive() && s.EventID == slot.EventID && s.TeacherID == slot.TeacherID && s.StartTime.Equal(slot.StartTime) {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	m.seq = m.seq.Add(time.Second)
	slot.ID = m.nextID
	slot.CreatedAt = m.seq
	m.slots[slot.ID] = cloneSlot(slot)
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[id]; ok {
		return cloneSlot(s), nil
	}
	return nil, nil
}

func (m *mockSlotRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSlotRepo) FindActive(_ context.Context, eventID, teacherID int64, startTime time.Time) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.Slot
	for _, s := range m.slots {
		if !s.IsActive() || s.EventID != eventID || s.TeacherID != teacherID || !s.StartTime.Equal(startTime) {
			continue
		}
		if found == nil || s.CreatedAt.After(found.CreatedAt) {
			found = s
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneSlot(found), nil
}

func (m *mockSlotRepo) list(match func(*model.Slot) bool) []*model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Slot
	for _, s := range m.slots {
		if match(s) {
			result = append(result, cloneSlot(s))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *mockSlotRepo) ListActiveForEvent(_ context.Context, eventID int64) ([]*model.Slot, error) {
	return m.list(func(s *model.Slot) bool { return s.IsActive() && s.EventID == eventID }), nil
}

func (m *mockSlotRepo) ListActiveForParent(_ context.Context, parentID int64) ([]*model.Slot, error) {
	return m.list(func(s *model.Slot) bool { return s.IsActive() && s.ParentID == parentID }), nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *mockSlotRepo) VoidForEvent(_ context.Context, eventID int64) ([]*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var voided []*model.Slot
	for _, s := range m.slots {
		if s.IsActive() && s.EventID == eventID {
			s.Status = model.SlotStatusCancelled
			voided = append(voided, cloneSlot(s))
		}
	}
	return voided, nil
}

func (m *mockSlotRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// ==================== Mock UserRepository ====================

type mockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			c := *u
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListTeachersBySchool(_ context.Context, schoolID int64) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.User
	for _, u := range m.users {
		if u.Role == model.RoleTeacher && u.SchoolID != nil && *u.SchoolID == schoolID {
			c := *u
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) SetTelegramID(_ context.Context, userID int64, telegramID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if telegramID != nil {
		for _, u := range m.users {
			if u.ID != userID && u.TelegramID != nil && *u.TelegramID == *telegramID {
				return repository.ErrDuplicate
			}
		}
	}
	user.TelegramID = telegramID
	return nil
}

// ==================== Mock BuildingRepository ====================

type mockBuildingRepo struct {
	mu        sync.Mutex
	buildings map[int64]*model.Building
	bookings  []*model.BuildingBooking
	nextID    int64
}

func newMockBuildingRepo() *mockBuildingRepo {
	return &mockBuildingRepo{buildings: make(map[int64]*model.Building)}
}

func (m *mockBuildingRepo) GetByID(_ context.Context, id int64) (*model.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buildings[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (m *mockBuildingRepo) UpsertBooking(_ context.Context, booking *model.BuildingBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.EventID == booking.EventID && b.TeacherID == booking.TeacherID {
			b.BuildingID = booking.BuildingID
			b.Classroom = booking.Classroom
			booking.ID = b.ID
			return nil
		}
	}
	m.nextID++
	booking.ID = m.nextID
	c := *booking
	m.bookings = append(m.bookings, &c)
	return nil
}

func (m *mockBuildingRepo) ListBookingsForEvents(_ context.Context, eventIDs []int64) ([]*model.BuildingBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.BuildingBooking
	for _, b := range m.bookings {
		for _, id := range eventIDs {
			if b.EventID == id {
				c := *b
				if building, ok := m.buildings[b.BuildingID]; ok {
					bc := *building
					c.Building = &bc
				}
				result = append(result, &c)
			}
		}
	}
	return result, nil
}

// ==================== Recording Notifier ====================

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []*model.Slot
	cancelled []*model.Slot
	voided    []*model.Slot
}

func (n *recordingNotifier) SlotBooked(_ context.Context, _ *model.Event, slot *model.Slot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, slot)
}

func (n *recordingNotifier) SlotCancelled(_ context.Context, _ *model.Event, slot *model.Slot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, slot)
}

func (n *recordingNotifier) SlotsVoided(_ context.Context, _ *model.Event, slots []*model.Slot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.voided = append(n.voided, slots...)
}
