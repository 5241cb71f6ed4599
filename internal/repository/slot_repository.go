package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
)

// SlotRepository - хранилище записей родителей
type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	FindActive(ctx context.Context, eventID, teacherID int64, startTime time.Time) (*model.Slot, error)
	ListActiveForEvent(ctx context.Context, eventID int64) ([]*model.Slot, error)
	ListActiveForParent(ctx context.Context, parentID int64) ([]*model.Slot, error)
	Delete(ctx context.Context, id int64) error
	VoidForEvent(ctx context.Context, eventID int64) ([]*model.Slot, error)
}

const slotColumns = `id, event_id, teacher_id, parent_id, start_time, end_time, status, created_at`

type slotRepository struct {
	*base.Repository
}

func NewSlotRepository(db base.DBTX) SlotRepository {
	return &slotRepository{Repository: base.NewRepository(db)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.EventID,
		&slot.TeacherID,
		&slot.ParentID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) collect(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

// Create создаёт действующую запись.
// Занятая ячейка (уникальный индекс uq_slots_active_cell) возвращает ErrDuplicate.
func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (event_id, teacher_id, parent_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if slot.Status == "" {
		slot.Status = model.SlotStatusBooked
	}

	err := r.QueryRow(
		ctx, query,
		slot.EventID,
		slot.TeacherID,
		slot.ParentID,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *slotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает запись и блокирует строку до конца транзакции
func (r *slotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// FindActive ищет действующую запись в ячейке (мероприятие, учитель, начало)
func (r *slotRepository) FindActive(ctx context.Context, eventID, teacherID int64, startTime time.Time) (*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE event_id = $1
		  AND teacher_id = $2
		  AND start_time = $3
		  AND status = 'booked'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	slot, err := scanSlot(r.QueryRow(ctx, query, eventID, teacherID, startTime))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active slot: %w", err)
	}

	return slot, nil
}

// ListActiveForEvent получает все действующие записи мероприятия
func (r *slotRepository) ListActiveForEvent(ctx context.Context, eventID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE event_id = $1 AND status = 'booked'
		ORDER BY start_time, id
	`
	return r.collect(ctx, "list slots by event", query, eventID)
}

// ListActiveForParent получает все действующие записи родителя
func (r *slotRepository) ListActiveForParent(ctx context.Context, parentID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE parent_id = $1 AND status = 'booked'
		ORDER BY start_time, id
	`
	return r.collect(ctx, "list slots by parent", query, parentID)
}

// Delete удаляет запись
func (r *slotRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// VoidForEvent аннулирует все действующие записи мероприятия и возвращает их
func (r *slotRepository) VoidForEvent(ctx context.Context, eventID int64) ([]*model.Slot, error) {
	query := `
		UPDATE slots
		SET status = 'cancelled'
		WHERE event_id = $1 AND status = 'booked'
		RETURNING ` + slotColumns
	return r.collect(ctx, "void slots", query, eventID)
}
