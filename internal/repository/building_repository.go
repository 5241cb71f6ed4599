package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
)

// BuildingRepository - здания школы и кабинеты учителей на мероприятиях
type BuildingRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Building, error)
	UpsertBooking(ctx context.Context, booking *model.BuildingBooking) error
	ListBookingsForEvents(ctx context.Context, eventIDs []int64) ([]*model.BuildingBooking, error)
}

type buildingRepository struct {
	*base.Repository
}

func NewBuildingRepository(db base.DBTX) BuildingRepository {
	return &buildingRepository{Repository: base.NewRepository(db)}
}

// GetByID получает здание по ID
func (r *buildingRepository) GetByID(ctx context.Context, id int64) (*model.Building, error) {
	query := `SELECT id, school_id, name, address FROM buildings WHERE id = $1`

	var b model.Building
	err := r.QueryRow(ctx, query, id).Scan(&b.ID, &b.SchoolID, &b.Name, &b.Address)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get building by id: %w", err)
	}

	return &b, nil
}

// UpsertBooking назначает учителю кабинет на мероприятии (один кабинет на учителя)
func (r *buildingRepository) UpsertBooking(ctx context.Context, booking *model.BuildingBooking) error {
	query := `
		INSERT INTO building_bookings (event_id, teacher_id, building_id, classroom)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, teacher_id)
		DO UPDATE SET building_id = EXCLUDED.building_id, classroom = EXCLUDED.classroom
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.EventID,
		booking.TeacherID,
		booking.BuildingID,
		booking.Classroom,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert building booking: %w", err)
	}

	return nil
}

// ListBookingsForEvents получает кабинеты учителей вместе со зданиями
func (r *buildingRepository) ListBookingsForEvents(ctx context.Context, eventIDs []int64) ([]*model.BuildingBooking, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT bb.id, bb.event_id, bb.teacher_id, bb.building_id, bb.classroom, bb.created_at,
		       b.id, b.school_id, b.name, b.address
		FROM building_bookings bb
		JOIN buildings b ON b.id = bb.building_id
		WHERE bb.event_id = ANY($1)
		ORDER BY bb.event_id, bb.teacher_id
	`

	rows, err := r.Query(ctx, query, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("list building bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.BuildingBooking
	for rows.Next() {
		var bb model.BuildingBooking
		var b model.Building
		err := rows.Scan(
			&bb.ID,
			&bb.EventID,
			&bb.TeacherID,
			&bb.BuildingID,
			&bb.Classroom,
			&bb.CreatedAt,
			&b.ID,
			&b.SchoolID,
			&b.Name,
			&b.Address,
		)
		if err != nil {
			return nil, fmt.Errorf("scan building booking: %w", err)
		}
		bb.Building = &b
		bookings = append(bookings, &bb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list building bookings: %w", err)
	}

	return bookings, nil
}
