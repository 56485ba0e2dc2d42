// Package admin — repository.go: сессии, попытки входа и запросы статистики.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами admin_sessions и admin_login_attempts.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий админки.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession создаёт новую сессию и деактивирует предыдущие сессии
// этого пользователя — активной остаётся ровно одна.
func (r *Repository) CreateSession(ctx context.Context, userID int64, token string, ttl time.Duration) (*Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE
	`, userID); err != nil {
		return nil, fmt.Errorf("ошибка деактивации сессий: %w", err)
	}

	var s Session
	err = tx.QueryRow(ctx, `
		INSERT INTO admin_sessions (user_id, session_token, expires_at)
		VALUES ($1, $2, NOW() + $3::interval)
		RETURNING id, user_id, session_token, authenticated_at, expires_at, last_activity, is_active
	`, userID, token, ttl).Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.AuthenticatedAt, &s.ExpiresAt, &s.LastActivity, &s.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита сессии: %w", err)
	}
	return &s, nil
}

// HasActiveSession проверяет наличие живой сессии и обновляет last_activity.
func (r *Repository) HasActiveSession(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE admin_sessions
		SET last_activity = NOW()
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
	`, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки сессии: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateSessions закрывает все сессии пользователя (logout).
func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка закрытия сессий: %w", err)
	}
	return nil
}

// DeleteExpiredSessions удаляет протухшие сессии (фоновая чистка).
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM admin_sessions WHERE expires_at < NOW() OR is_active = FALSE
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка чистки сессий: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecordLoginAttempt записывает попытку входа.
func (r *Repository) RecordLoginAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)
	`, userID, success)
	if err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// CountRecentFailures считает неудачные попытки за последний час.
func (r *Repository) CountRecentFailures(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time > NOW() - INTERVAL '1 hour'
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток: %w", err)
	}
	return n, nil
}

// GetStats собирает сводку для дашборда.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM bets WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM bets),
			(SELECT COALESCE(SUM(balance), 0) FROM balances)
	`).Scan(&st.UsersCount, &st.ActiveBets, &st.TotalVolume, &st.TotalBalances)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса статистики: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('hour', created_at) AS hour, COUNT(*)
		FROM bets
		WHERE created_at > NOW() - INTERVAL '24 hours'
		GROUP BY hour
		ORDER BY hour
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ставок по часам: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h BetsByHour
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		st.BetsByHour = append(st.BetsByHour, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return st, nil
}
