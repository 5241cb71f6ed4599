package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
)

var (
	// ErrDuplicate - нарушен уникальный индекс (например, ячейка уже занята)
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound - изменяемая запись не найдена
	ErrNotFound = errors.New("record not found")
)

// Repository - набор репозиториев, работающих через одно соединение
type Repository struct {
	Events    EventRepository
	Slots     SlotRepository
	Users     UserRepository
	Buildings BuildingRepository

	pool *pgxpool.Pool // nil внутри транзакции
}

// New создаёт репозитории поверх пула соединений
func New(pool *pgxpool.Pool) *Repository {
	r := newRepository(pool)
	r.pool = pool
	return r
}

func newRepository(db base.DBTX) *Repository {
	return &Repository{
		Events:    NewEventRepository(db),
		Slots:     NewSlotRepository(db),
		Users:     NewUserRepository(db),
		Buildings: NewBuildingRepository(db),
	}
}

// WithinTx выполняет fn в одной транзакции.
// Любая ошибка fn откатывает транзакцию; внутри транзакции вызов не вкладывается.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(newRepository(tx))
	})
}
