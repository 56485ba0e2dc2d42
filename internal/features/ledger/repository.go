// Package ledger — repository.go выполняет операции с таблицами balances
// и transactions. Все денежные операции выполняются в транзакциях БД
// с ограниченным временем ожидания блокировок.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами и журналом операций.
type Repository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository создаёт репозиторий леджера.
func NewRepository(db *pgxpool.Pool, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

// EnsureBalance гарантирует, что у пользователя есть запись баланса.
// Если нет — создаёт с нулевым балансом. Вызывается при регистрации.
func (r *Repository) EnsureBalance(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO balances (user_id, balance, total_earned, total_spent)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
// Чтение идёт из той же таблицы, что и изменения: закоммиченные
// операции видны сразу, расчёт по устаревшему снимку невозможен.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `SELECT balance FROM balances WHERE user_id = $1`
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, common.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// AdjustBalance — ручная корректировка баланса админом.
// Положительная сумма зачисляется, отрицательная списывается
// (с проверкой, что баланс не уйдёт в минус). Операция записывается
// в журнал с пометкой, кто и зачем её сделал.
func (r *Repository) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal, note string) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, common.ErrInvalidAmount
	}

	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	if delta.IsPositive() {
		err = Credit(ctx, tx, userID, delta, TxTypeAdjustment, note)
	} else {
		err = Debit(ctx, tx, userID, delta.Neg(), TxTypeAdjustment, note)
	}
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return decimal.Zero, common.ErrLockTimeout
		}
		return decimal.Zero, err
	}

	var newBalance decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT balance FROM balances WHERE user_id = $1`, userID).Scan(&newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка чтения нового баланса: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}

// GetTransactions возвращает последние N операций пользователя.
// Включает как входящие, так и исходящие.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования операции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return transactions, nil
}

// GetTotalStats возвращает полную запись баланса пользователя.
func (r *Repository) GetTotalStats(ctx context.Context, userID int64) (*Balance, error) {
	query := `
		SELECT id, user_id, balance, total_earned, total_spent, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`
	var b Balance
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.ID, &b.UserID, &b.Balance, &b.TotalEarned, &b.TotalSpent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return &b, nil
}
