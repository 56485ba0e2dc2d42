// Package payments — repository.go выполняет операции с таблицей payments.
//
// Денежная семантика направлений асимметрична:
//   - депозит: создание заявки НЕ трогает баланс, зачисление происходит
//     только при подтверждении от шлюза;
//   - вывод: средства резервируются (списываются) сразу при создании
//     заявки, подтверждение лишь закрывает её, отклонение возвращает резерв.
//
// Вся обработка вебхуков идёт через FOR UPDATE по external_ref, поэтому
// конкурирующие повторы одного события сериализуются, а повтор видит
// терминальный статус и ничего не делает.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/db/postgres"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
)

const paymentColumns = `id, user_id, amount, direction, external_ref, status, destination, created_at, updated_at`

// Repository работает с таблицей payments.
type Repository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository создаёт репозиторий платежей.
func NewRepository(db *pgxpool.Pool, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Direction, &p.ExternalRef,
		&p.Status, &p.Destination, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateDeposit создаёт pending-заявку на пополнение с заданным внешним
// референсом. Баланс не меняется: деньги появятся только после
// подтверждения от шлюза.
func (r *Repository) CreateDeposit(ctx context.Context, userID int64, amount decimal.Decimal, ref string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `
		INSERT INTO payments (user_id, amount, direction, external_ref)
		VALUES ($1, $2, 'deposit', $3)
		RETURNING `+paymentColumns+`
	`, userID, amount, ref))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, common.ErrPaymentConflict
		}
		return nil, fmt.Errorf("ошибка создания заявки на пополнение: %w", err)
	}
	return p, nil
}

// CreateWithdrawal атомарно резервирует средства и создаёт pending-заявку
// на вывод: либо и списание, и заявка, либо ничего.
func (r *Repository) CreateWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, destination string) (*Payment, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ref := uuid.NewString()
	err = ledger.Debit(ctx, tx, userID, amount, ledger.TxTypeWithdrawal,
		fmt.Sprintf("Заявка на вывод %s", ref))
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, common.ErrLockTimeout
		}
		return nil, err
	}

	p, err := scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (user_id, amount, direction, external_ref, destination)
		VALUES ($1, $2, 'withdrawal', $3, $4)
		RETURNING `+paymentColumns+`
	`, userID, amount, ref, destination))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, common.ErrPaymentConflict
		}
		return nil, fmt.Errorf("ошибка создания заявки на вывод: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита заявки на вывод: %w", err)
	}
	return p, nil
}

// ApplyConfirmed обрабатывает подтверждение платежа от шлюза.
//
// Идемпотентно: повторное подтверждение уже completed-платежа — no-op
// с успешным результатом. Подтверждение rejected-платежа — конфликт,
// баланс не меняется.
func (r *Repository) ApplyConfirmed(ctx context.Context, externalRef string) (*Payment, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := r.lockByRef(ctx, tx, externalRef)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case StatusCompleted:
		// Повторный вебхук: деньги уже зачислены ровно один раз
		return p, tx.Commit(ctx)
	case StatusRejected:
		return nil, common.ErrPaymentConflict
	}

	if p.Direction == DirectionDeposit {
		err = ledger.Credit(ctx, tx, p.UserID, p.Amount, ledger.TxTypeDeposit,
			fmt.Sprintf("Пополнение %s", p.ExternalRef))
		if err != nil {
			if postgres.IsLockTimeout(err) {
				return nil, common.ErrLockTimeout
			}
			return nil, err
		}
	}
	// Для вывода средства уже зарезервированы при создании заявки,
	// подтверждение меняет только статус.

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = 'completed', updated_at = NOW() WHERE id = $1
	`, p.ID); err != nil {
		return nil, fmt.Errorf("ошибка подтверждения платежа: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита платежа: %w", err)
	}
	p.Status = StatusCompleted
	return p, nil
}

// Reject обрабатывает отклонение платежа шлюзом (или админом, или
// фоновой чисткой просроченных заявок).
//
// Отклонение pending-вывода возвращает зарезервированные средства.
// Отклонение pending-депозита просто закрывает заявку — списания не было.
// Повторное отклонение rejected-платежа — no-op; отклонение
// completed-платежа — конфликт.
func (r *Repository) Reject(ctx context.Context, externalRef string) (*Payment, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := r.lockByRef(ctx, tx, externalRef)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case StatusRejected:
		return p, tx.Commit(ctx)
	case StatusCompleted:
		return nil, common.ErrPaymentConflict
	}

	if p.Direction == DirectionWithdrawal {
		err = ledger.Credit(ctx, tx, p.UserID, p.Amount, ledger.TxTypeWithdRefund,
			fmt.Sprintf("Возврат по заявке на вывод %s", p.ExternalRef))
		if err != nil {
			if postgres.IsLockTimeout(err) {
				return nil, common.ErrLockTimeout
			}
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = 'rejected', updated_at = NOW() WHERE id = $1
	`, p.ID); err != nil {
		return nil, fmt.Errorf("ошибка отклонения платежа: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита отклонения: %w", err)
	}
	p.Status = StatusRejected
	return p, nil
}

// lockByRef читает платёж по external_ref с блокировкой строки.
func (r *Repository) lockByRef(ctx context.Context, tx pgx.Tx, externalRef string) (*Payment, error) {
	p, err := scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE external_ref = $1
		FOR UPDATE
	`, externalRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPaymentNotFound
		}
		if postgres.IsLockTimeout(err) {
			return nil, common.ErrLockTimeout
		}
		return nil, fmt.Errorf("ошибка чтения платежа: %w", err)
	}
	return p, nil
}

// ListStaleWithdrawals возвращает референсы pending-выводов старше ttl.
// Сами заявки отклоняются по одной через Reject — каждая в своей
// транзакции, чтобы гонка с «живым» вебхуком решалась на уровне строки.
func (r *Repository) ListStaleWithdrawals(ctx context.Context, ttl time.Duration) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT external_ref
		FROM payments
		WHERE direction = 'withdrawal' AND status = 'pending' AND created_at < NOW() - $1::interval
		ORDER BY created_at
	`, ttl)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки просроченных заявок: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("ошибка сканирования референса: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return refs, nil
}

// GetByRef возвращает платёж по внешнему референсу.
func (r *Repository) GetByRef(ctx context.Context, externalRef string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE external_ref = $1
	`, externalRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("ошибка чтения платежа: %w", err)
	}
	return p, nil
}

// GetUserPayments возвращает последние платежи пользователя.
func (r *Repository) GetUserPayments(ctx context.Context, userID int64, limit int) ([]*Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса платежей: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования платежа: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ListPendingWithdrawals возвращает все ожидающие заявки на вывод (админка).
func (r *Repository) ListPendingWithdrawals(ctx context.Context) ([]*Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE direction = 'withdrawal' AND status = 'pending'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса заявок на вывод: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
