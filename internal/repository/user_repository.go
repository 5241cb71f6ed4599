package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
)

// UserRepository - пользователи (регистрация и вход вне этого сервиса)
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	ListTeachersBySchool(ctx context.Context, schoolID int64) ([]*model.User, error)
	SetTelegramID(ctx context.Context, userID int64, telegramID *int64) error
}

const userColumns = `id, school_id, role, first_name, middle_name, last_name, email, telegram_id, created_at`

type userRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) UserRepository {
	return &userRepository{Repository: base.NewRepository(db)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.SchoolID,
		&user.Role,
		&user.FirstName,
		&user.MiddleName,
		&user.LastName,
		&user.Email,
		&user.TelegramID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	user, err := scanUser(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *userRepository) collect(ctx context.Context, op, query string, args ...any) ([]*model.User, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getOne(ctx, "get user by telegram id", `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
}

// GetByIDs получает пользователей по списку ID
func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY last_name, first_name, middle_name`
	return r.collect(ctx, "get users by ids", query, ids)
}

// ListTeachersBySchool получает всех учителей школы
func (r *userRepository) ListTeachersBySchool(ctx context.Context, schoolID int64) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE school_id = $1 AND role = 'teacher'
		ORDER BY last_name, first_name, middle_name
	`
	return r.collect(ctx, "list teachers by school", query, schoolID)
}

// SetTelegramID привязывает (или отвязывает при nil) Telegram-аккаунт
func (r *userRepository) SetTelegramID(ctx context.Context, userID int64, telegramID *int64) error {
	affected, err := r.ExecAffected(ctx, `UPDATE users SET telegram_id = $1 WHERE id = $2`, telegramID, userID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("set user telegram id: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
