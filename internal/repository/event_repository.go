package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
)

// EventRepository - хранилище мероприятий и их учителей
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Event, error)
	ListForSchool(ctx context.Context, schoolID int64) ([]*model.Event, error)
	ListForTeacher(ctx context.Context, teacherID int64) ([]*model.Event, error)
	ListSchoolIDs(ctx context.Context) ([]int64, error)
	Update(ctx context.Context, event *model.Event) error
	UpdateStatus(ctx context.Context, id int64, status model.EventStatus) error
	Delete(ctx context.Context, id int64) error
}

const eventColumns = `e.id, e.school_id, e.name, e.start_time, e.end_time, e.status,
	e.consultations_count, e.consultation_duration_minutes, e.created_at,
	COALESCE(
		(SELECT array_agg(et.teacher_id ORDER BY et.teacher_id) FROM event_teachers et WHERE et.event_id = e.id),
		'{}'
	)`

// Порядок: ongoing, scheduled, completed, cancelled; затем по началу; затем новые id
const eventOrder = `
	ORDER BY CASE e.status
		WHEN 'ongoing' THEN 0
		WHEN 'scheduled' THEN 1
		WHEN 'completed' THEN 2
		WHEN 'cancelled' THEN 3
		ELSE 4
	END, e.start_time ASC, e.id DESC
`

type eventRepository struct {
	*base.Repository
}

func NewEventRepository(db base.DBTX) EventRepository {
	return &eventRepository{Repository: base.NewRepository(db)}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.SchoolID,
		&event.Name,
		&event.StartTime,
		&event.EndTime,
		&event.Status,
		&event.ConsultationsCount,
		&event.ConsultationDurationMinutes,
		&event.CreatedAt,
		&event.TeacherIDs,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) collect(ctx context.Context, op, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// Create создаёт мероприятие вместе со списком учителей.
// Вызывать внутри транзакции.
func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (school_id, name, start_time, end_time, status, consultations_count, consultation_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	if event.Status == "" {
		event.Status = model.EventStatusScheduled
	}

	err := r.QueryRow(
		ctx, query,
		event.SchoolID,
		event.Name,
		event.StartTime,
		event.EndTime,
		event.Status,
		event.ConsultationsCount,
		event.ConsultationDurationMinutes,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	return r.replaceTeachers(ctx, event.ID, event.TeacherIDs)
}

// GetByID получает мероприятие по ID
func (r *eventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`

	event, err := scanEvent(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}

	return event, nil
}

// GetByIDs получает мероприятия по списку ID
func (r *eventRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = ANY($1)` + eventOrder
	return r.collect(ctx, "get events by ids", query, ids)
}

// ListForSchool получает мероприятия школы в порядке отображения
func (r *eventRepository) ListForSchool(ctx context.Context, schoolID int64) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.school_id = $1` + eventOrder
	return r.collect(ctx, "list events by school", query, schoolID)
}

// ListForTeacher получает мероприятия, в которых участвует учитель
func (r *eventRepository) ListForTeacher(ctx context.Context, teacherID int64) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN event_teachers t ON t.event_id = e.id
		WHERE t.teacher_id = $1` + eventOrder
	return r.collect(ctx, "list events by teacher", query, teacherID)
}

// ListSchoolIDs возвращает школы, у которых есть мероприятия
func (r *eventRepository) ListSchoolIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.Query(ctx, `SELECT DISTINCT school_id FROM events ORDER BY school_id`)
	if err != nil {
		return nil, fmt.Errorf("list event schools: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan school id: %w", err)
	}

	return ids, nil
}

// Update обновляет мероприятие и заменяет список учителей.
// Вызывать внутри транзакции.
func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	query := `
		UPDATE events
		SET name = $1,
		    start_time = $2,
		    end_time = $3,
		    consultations_count = $4,
		    consultation_duration_minutes = $5
		WHERE id = $6
	`

	affected, err := r.ExecAffected(
		ctx, query,
		event.Name,
		event.StartTime,
		event.EndTime,
		event.ConsultationsCount,
		event.ConsultationDurationMinutes,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return r.replaceTeachers(ctx, event.ID, event.TeacherIDs)
}

// UpdateStatus обновляет статус мероприятия
func (r *eventRepository) UpdateStatus(ctx context.Context, id int64, status model.EventStatus) error {
	affected, err := r.ExecAffected(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет мероприятие (записи, учителя и кабинеты удалятся каскадом)
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *eventRepository) replaceTeachers(ctx context.Context, eventID int64, teacherIDs []int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM event_teachers WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear event teachers: %w", err)
	}

	if len(teacherIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO event_teachers (event_id, teacher_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.ExecAffected(ctx, query, eventID, teacherIDs); err != nil {
		return fmt.Errorf("set event teachers: %w", err)
	}

	return nil
}
