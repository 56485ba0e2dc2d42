// Package admin реализует администрирование сервиса: вход по паролю,
// сессии, статистика и ручные операции над балансами и ставками.
// models.go — структуры данных админки.
package admin

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session — активная админская сессия, привязана к Telegram-пользователю.
type Session struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	SessionToken    string     `db:"session_token" json:"-"`
	AuthenticatedAt time.Time  `db:"authenticated_at" json:"authenticated_at"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	LastActivity    time.Time  `db:"last_activity" json:"last_activity"`
	IsActive        bool       `db:"is_active" json:"is_active"`
}

// LoginAttempt — попытка входа, для лимита перебора пароля.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// Stats — сводная статистика для дашборда.
type Stats struct {
	UsersCount    int64           `json:"users_count"`
	ActiveBets    int64           `json:"active_bets"`
	TotalVolume   decimal.Decimal `json:"total_volume"`
	TotalBalances decimal.Decimal `json:"total_balances"`
	BetsByHour    []BetsByHour    `json:"bets_by_hour"`
}

// BetsByHour — количество ставок по часам за последние сутки.
type BetsByHour struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}
