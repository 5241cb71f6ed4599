package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

type User struct {
	ID         int64     `json:"id"`
	SchoolID   *int64    `json:"school_id"`
	Role       Role      `json:"role"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	TelegramID *int64    `json:"telegram_id"` // nil - аккаунт не привязан к Telegram
	CreatedAt  time.Time `json:"created_at"`
}

// FullName возвращает "Фамилия Имя Отчество"
func (u *User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.LastName, u.FirstName, u.MiddleName}, " "))
}

// DisplayName возвращает полное имя или email, если имя не заполнено
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// Identity returns the authenticated context of the user
func (u *User) Identity() Identity {
	id := Identity{UserID: u.ID, Role: u.Role}
	if u.SchoolID != nil {
		id.SchoolID = *u.SchoolID
	}
	return id
}

// Identity - контекст уже аутентифицированного пользователя.
// Учитель и родитель используют user_id как teacher_id / parent_id.
type Identity struct {
	UserID   int64
	SchoolID int64 // 0 - пользователь не привязан к школе
	Role     Role
}

// TeacherID возвращает идентификатор учителя, если роль - учитель
func (i Identity) TeacherID() (int64, bool) {
	if i.Role != RoleTeacher {
		return 0, false
	}
	return i.UserID, true
}

// ParentID возвращает идентификатор родителя, если роль - родитель
func (i Identity) ParentID() (int64, bool) {
	if i.Role != RoleParent {
		return 0, false
	}
	return i.UserID, true
}

// HasSchool проверяет привязку к школе
func (i Identity) HasSchool() bool {
	return i.SchoolID != 0
}
