// Package ledger — tx.go: композируемые операции над балансом.
//
// Credit и Debit работают на переданной извне транзакции pgx.Tx,
// поэтому вызывающий код может объединить изменение баланса с другими
// записями (ставка, платёж) в одну атомарную единицу: либо всё
// закоммитится вместе, либо ничего.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Credit зачисляет средства на счёт пользователя внутри транзакции tx
// и записывает операцию в журнал.
func Credit(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal, txType, description string) error {
	if !amount.IsPositive() {
		return common.ErrInvalidAmount
	}

	tag, err := tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи операции: %w", err)
	}
	return nil
}

// Debit списывает средства со счёта пользователя внутри транзакции tx.
// Строка баланса блокируется FOR UPDATE: конкурентные списания одного
// пользователя выстраиваются в очередь, и второе видит результат первого.
// Если средств не хватает — common.ErrInsufficientBalance, изменений нет.
func Debit(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal, txType, description string) error {
	if !amount.IsPositive() {
		return common.ErrInvalidAmount
	}

	var current decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if current.LessThan(amount) {
		return common.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (from_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи операции: %w", err)
	}
	return nil
}
