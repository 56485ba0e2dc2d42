// Package betting — repository.go выполняет операции с таблицей bets.
// Все операции, меняющие деньги, идут в одной транзакции с изменением
// баланса: ставка без списания или списание без ставки невозможны.
package betting

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
	"jeanbet.ru/betting-webapp/internal/features/ledger"
)

// Repository работает с таблицами bets и settlements.
type Repository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository создаёт репозиторий ставок.
func NewRepository(db *pgxpool.Pool, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

// PlaceBet атомарно списывает ставку с баланса и создаёт pending-ставку
// с зафиксированным коэффициентом. Строка баланса блокируется внутри
// ledger.Debit: конкурентные ставки одного пользователя сериализуются,
// и вторая видит уже уменьшенный баланс.
func (r *Repository) PlaceBet(ctx context.Context, userID int64, amount decimal.Decimal, racerID int64, odds decimal.Decimal) (*Bet, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = ledger.Debit(ctx, tx, userID, amount, ledger.TxTypeBetStake,
		fmt.Sprintf("Ставка на гонщика %d", racerID))
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, common.ErrLockTimeout
		}
		return nil, err
	}

	var b Bet
	err = tx.QueryRow(ctx, `
		INSERT INTO bets (user_id, amount, racer_id, odds)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, amount, racer_id, odds, status, created_at, settled_at
	`, userID, amount, racerID, odds).Scan(
		&b.ID, &b.UserID, &b.Amount, &b.RacerID, &b.Odds, &b.Status, &b.CreatedAt, &b.SettledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания ставки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита ставки: %w", err)
	}
	return &b, nil
}

// Settle рассчитывает ВСЕ pending-ставки по объявленному победителю
// одной транзакцией:
//
//  1. pending-ставки выбираются FOR UPDATE — конкурентный расчёт или
//     отмена той же ставки ждут и затем не находят pending-строк;
//  2. выигрыши считаются по коэффициенту, сохранённому в ставке;
//  3. статусы и зачисления коммитятся единым блоком; падение где-то
//     посередине откатывает всё, ставки остаются pending и повторный
//     запуск безопасно доводит расчёт до конца.
//
// Повторный вызов после полного расчёта не находит pending-ставок
// и возвращает common.ErrNoPendingBets, не меняя ни балансов, ни статусов.
func (r *Repository) Settle(ctx context.Context, winnerRacerID int64) (*Settlement, []settledBet, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	// Один снимок всех активных ставок, с блокировкой строк
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, amount, odds, racer_id
		FROM bets
		WHERE status = 'pending'
		ORDER BY id
		FOR UPDATE
	`)
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, nil, common.ErrLockTimeout
		}
		return nil, nil, fmt.Errorf("ошибка выборки активных ставок: %w", err)
	}

	var pending []Bet
	for rows.Next() {
		var pb Bet
		if err := rows.Scan(&pb.ID, &pb.UserID, &pb.Amount, &pb.Odds, &pb.RacerID); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("ошибка сканирования ставки: %w", err)
		}
		pending = append(pending, pb)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, nil, common.ErrLockTimeout
		}
		return nil, nil, fmt.Errorf("ошибка чтения ставок: %w", err)
	}

	if len(pending) == 0 {
		return nil, nil, common.ErrNoPendingBets
	}

	settlement := &Settlement{WinnerRacerID: winnerRacerID, TotalPaid: decimal.Zero}
	settled := make([]settledBet, 0, len(pending))

	for _, pb := range pending {
		won := pb.RacerID == winnerRacerID
		status := StatusLost
		payout := decimal.Zero

		if won {
			status = StatusWon
			// Выплата строго по цене, зафиксированной при размещении
			payout = pb.WinAmount()
			err = ledger.Credit(ctx, tx, pb.UserID, payout, ledger.TxTypeBetWin,
				fmt.Sprintf("Выигрыш по ставке %d", pb.ID))
			if err != nil {
				if postgres.IsLockTimeout(err) {
					return nil, nil, common.ErrLockTimeout
				}
				return nil, nil, err
			}
			settlement.BetsWon++
			settlement.TotalPaid = settlement.TotalPaid.Add(payout)
		} else {
			settlement.BetsLost++
		}

		if _, err := tx.Exec(ctx, `
			UPDATE bets SET status = $2, settled_at = NOW() WHERE id = $1
		`, pb.ID, status); err != nil {
			return nil, nil, fmt.Errorf("ошибка обновления статуса ставки: %w", err)
		}

		settled = append(settled, settledBet{UserID: pb.UserID, Won: won, Payout: payout})
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO settlements (winner_racer_id, bets_won, bets_lost, total_paid)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, winnerRacerID, settlement.BetsWon, settlement.BetsLost, settlement.TotalPaid,
	).Scan(&settlement.ID, &settlement.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка записи расчёта: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, nil, common.ErrLockTimeout
		}
		return nil, nil, fmt.Errorf("ошибка коммита расчёта: %w", err)
	}
	return settlement, settled, nil
}

// Cancel отменяет pending-ставку: атомарно возвращает ставку на баланс
// и переводит статус в canceled. Строка ставки блокируется FOR UPDATE,
// поэтому гонка отмены с расчётом разрешается в пользу ровно одного:
// второй видит терминальный статус и получает ErrBetAlreadySettled.
func (r *Repository) Cancel(ctx context.Context, betID int64) (*Bet, error) {
	tx, err := postgres.BeginMoneyTx(ctx, r.db, r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var b Bet
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, amount, racer_id, odds, status, created_at, settled_at
		FROM bets
		WHERE id = $1
		FOR UPDATE
	`, betID).Scan(
		&b.ID, &b.UserID, &b.Amount, &b.RacerID, &b.Odds, &b.Status, &b.CreatedAt, &b.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrBetNotFound
		}
		if postgres.IsLockTimeout(err) {
			return nil, common.ErrLockTimeout
		}
		return nil, fmt.Errorf("ошибка чтения ставки: %w", err)
	}

	if b.Status != StatusPending {
		return nil, common.ErrBetAlreadySettled
	}

	err = ledger.Credit(ctx, tx, b.UserID, b.Amount, ledger.TxTypeBetRefund,
		fmt.Sprintf("Возврат ставки %d", b.ID))
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, common.ErrLockTimeout
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE bets SET status = 'canceled', settled_at = NOW() WHERE id = $1
	`, b.ID); err != nil {
		return nil, fmt.Errorf("ошибка отмены ставки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита отмены: %w", err)
	}

	b.Status = StatusCanceled
	return &b, nil
}

// GetUserBets возвращает последние ставки пользователя.
func (r *Repository) GetUserBets(ctx context.Context, userID int64, limit int) ([]*Bet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, racer_id, odds, status, created_at, settled_at
		FROM bets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ставок: %w", err)
	}
	defer rows.Close()

	var out []*Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.UserID, &b.Amount, &b.RacerID, &b.Odds, &b.Status, &b.CreatedAt, &b.SettledAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ставки: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// GetActiveBets возвращает все pending-ставки с именами пользователей (админка).
func (r *Repository) GetActiveBets(ctx context.Context) ([]*ActiveBet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id, b.user_id, b.amount, b.racer_id, b.odds, b.status, b.created_at, b.settled_at,
		       COALESCE(u.username, '')
		FROM bets b
		LEFT JOIN users u ON u.user_id = b.user_id
		WHERE b.status = 'pending'
		ORDER BY b.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса активных ставок: %w", err)
	}
	defer rows.Close()

	var out []*ActiveBet
	for rows.Next() {
		var ab ActiveBet
		if err := rows.Scan(&ab.ID, &ab.UserID, &ab.Amount, &ab.RacerID, &ab.Odds, &ab.Status, &ab.CreatedAt, &ab.SettledAt, &ab.Username); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &ab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
