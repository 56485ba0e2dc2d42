// Package users — repository.go отвечает за все операции с таблицей users в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jeanbet.ru/betting-webapp/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert добавляет нового пользователя или обновляет имя/username существующего.
// Флаги админа и бана на конфликте не трогаются.
func (r *Repository) Upsert(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (user_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    updated_at = NOW()
		RETURNING id, user_id, username, first_name, is_admin, is_banned, created_at, updated_at
	`
	var out User
	err := r.db.QueryRow(ctx, query, u.UserID, u.Username, u.FirstName).Scan(
		&out.ID, &out.UserID, &out.Username, &out.FirstName,
		&out.IsAdmin, &out.IsBanned, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания/обновления пользователя: %w", err)
	}
	return &out, nil
}

// GetByUserID возвращает пользователя по Telegram ID.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, user_id, username, first_name, is_admin, is_banned, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.UserID, &u.Username, &u.FirstName,
		&u.IsAdmin, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (user_id=%d): %w", userID, err)
	}
	return &u, nil
}

// List возвращает всех пользователей с балансами (для админки).
func (r *Repository) List(ctx context.Context) ([]*UserWithBalance, error) {
	query := `
		SELECT u.user_id, u.username, u.first_name, u.is_admin, u.is_banned,
		       COALESCE(b.balance, 0), u.created_at
		FROM users u
		LEFT JOIN balances b ON b.user_id = u.user_id
		ORDER BY u.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса пользователей: %w", err)
	}
	defer rows.Close()

	var out []*UserWithBalance
	for rows.Next() {
		var u UserWithBalance
		if err := rows.Scan(
			&u.UserID, &u.Username, &u.FirstName, &u.IsAdmin, &u.IsBanned,
			&u.Balance, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// SetAdmin устанавливает/снимает флаг администратора.
func (r *Repository) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага админа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}
