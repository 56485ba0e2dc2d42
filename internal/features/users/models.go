// Package users управляет пользователями мини-приложения: регистрацией
// при первом входе, флагами администратора и бана.
// models.go описывает структуры данных для работы с таблицей users.
package users

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет пользователя в базе данных.
// Запись создаётся автоматически при первом обращении из WebApp,
// идентификатор — стабильный Telegram user ID.
type User struct {
	ID        int64     `db:"id" json:"-"`                  // Автоинкрементный ID записи в БД
	UserID    int64     `db:"user_id" json:"user_id"`       // Telegram user ID (уникальный)
	Username  string    `db:"username" json:"username"`     // @username (может быть пустым)
	FirstName string    `db:"first_name" json:"first_name"` // Имя пользователя
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`     // Флаг администратора
	IsBanned  bool      `db:"is_banned" json:"is_banned"`   // Флаг бана
	CreatedAt time.Time `db:"created_at" json:"created_at"` // Когда запись создана в БД
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // Последнее обновление записи
}

// UserWithBalance — строка для админского списка пользователей.
type UserWithBalance struct {
	UserID    int64           `db:"user_id" json:"user_id"`
	Username  string          `db:"username" json:"username"`
	FirstName string          `db:"first_name" json:"first_name"`
	IsAdmin   bool            `db:"is_admin" json:"is_admin"`
	IsBanned  bool            `db:"is_banned" json:"is_banned"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе — имя.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}
