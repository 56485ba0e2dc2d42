// Интеграционные тесты платежей. Требуют живой PostgreSQL:
//
//	DATABASE_URL=postgres://... go test ./internal/features/payments/
//
// Без DATABASE_URL тесты пропускаются.
package payments

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/db/postgres"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
)

const lockTimeout = 3 * time.Second

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL не задан, пропускаем интеграционный тест")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("парсинг DSN: %v", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("подключение к БД: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("миграции: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE bets, settlements, payments, transactions, balances,
		         admin_sessions, admin_login_attempts, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("очистка таблиц: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, userID int64, balance string) {
	t.Helper()
	ctx := context.Background()

	if _, err := pool.Exec(ctx, `INSERT INTO users (user_id, username) VALUES ($1, 'user')`, userID); err != nil {
		t.Fatalf("создание пользователя: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO balances (user_id, balance) VALUES ($1, $2)`,
		userID, decimal.RequireFromString(balance)); err != nil {
		t.Fatalf("создание баланса: %v", err)
	}
}

func balanceOf(t *testing.T, pool *pgxpool.Pool, userID int64) decimal.Decimal {
	t.Helper()
	b, err := ledger.NewRepository(pool, lockTimeout).GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("чтение баланса: %v", err)
	}
	return b
}

func TestDepositCreditedOnConfirmOnly(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "0")

	p, err := repo.CreateDeposit(ctx, 100, decimal.RequireFromString("500"), "pay_123")
	if err != nil {
		t.Fatalf("создание депозита: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("статус = %q, ожидался pending", p.Status)
	}

	// Заявка создана — денег ещё нет
	if got := balanceOf(t, pool, 100); !got.IsZero() {
		t.Errorf("баланс до подтверждения = %s, ожидалось 0", got)
	}

	confirmed, err := repo.ApplyConfirmed(ctx, p.ExternalRef)
	if err != nil {
		t.Fatalf("подтверждение: %v", err)
	}
	if confirmed.Status != StatusCompleted {
		t.Errorf("статус = %q, ожидался completed", confirmed.Status)
	}
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("500")) {
		t.Errorf("баланс после подтверждения = %s, ожидалось 500", got)
	}
}

// Шлюз может доставить один вебхук несколько раз — зачисление ровно одно.
func TestDuplicateWebhookCreditsOnce(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "0")

	p, err := repo.CreateDeposit(ctx, 100, decimal.RequireFromString("500"), "pay_123")
	if err != nil {
		t.Fatalf("создание депозита: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.ApplyConfirmed(ctx, p.ExternalRef); err != nil {
			t.Fatalf("подтверждение #%d: %v", i+1, err)
		}
	}

	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("500")) {
		t.Errorf("баланс после трёх вебхуков = %s, ожидалось 500", got)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE transaction_type = $1`,
		ledger.TxTypeDeposit).Scan(&n); err != nil || n != 1 {
		t.Errorf("записей о пополнении = %d (err=%v), ожидалась 1", n, err)
	}
}

func TestDuplicateExternalRefRejected(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "0")

	if _, err := repo.CreateDeposit(ctx, 100, decimal.RequireFromString("500"), "pay_123"); err != nil {
		t.Fatalf("создание депозита: %v", err)
	}

	_, err := repo.CreateDeposit(ctx, 100, decimal.RequireFromString("300"), "pay_123")
	if !errors.Is(err, common.ErrPaymentConflict) {
		t.Fatalf("повторный референс: ожидалась ErrPaymentConflict, получили %v", err)
	}
}

func TestConfirmRejectedDepositConflicts(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "0")

	p, err := repo.CreateDeposit(ctx, 100, decimal.RequireFromString("500"), "pay_123")
	if err != nil {
		t.Fatalf("создание депозита: %v", err)
	}
	if _, err := repo.Reject(ctx, p.ExternalRef); err != nil {
		t.Fatalf("отклонение: %v", err)
	}

	_, err = repo.ApplyConfirmed(ctx, p.ExternalRef)
	if !errors.Is(err, common.ErrPaymentConflict) {
		t.Fatalf("ожидалась ErrPaymentConflict, получили %v", err)
	}
	if got := balanceOf(t, pool, 100); !got.IsZero() {
		t.Errorf("баланс = %s, ожидалось 0", got)
	}
}

func TestWithdrawalReservesImmediately(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	p, err := repo.CreateWithdrawal(ctx, 100, decimal.RequireFromString("600"), "4111 1111 1111 1111")
	if err != nil {
		t.Fatalf("создание вывода: %v", err)
	}

	// Резерв снят сразу
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("400")) {
		t.Errorf("баланс после заявки = %s, ожидалось 400", got)
	}

	// Подтверждение выплаты меняет только статус
	confirmed, err := repo.ApplyConfirmed(ctx, p.ExternalRef)
	if err != nil {
		t.Fatalf("подтверждение: %v", err)
	}
	if confirmed.Status != StatusCompleted {
		t.Errorf("статус = %q, ожидался completed", confirmed.Status)
	}
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("400")) {
		t.Errorf("баланс после выплаты = %s, ожидалось 400", got)
	}
}

func TestWithdrawalRejectRefunds(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	p, err := repo.CreateWithdrawal(ctx, 100, decimal.RequireFromString("600"), "карта")
	if err != nil {
		t.Fatalf("создание вывода: %v", err)
	}

	rejected, err := repo.Reject(ctx, p.ExternalRef)
	if err != nil {
		t.Fatalf("отклонение: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("статус = %q, ожидался rejected", rejected.Status)
	}

	// Резерв вернулся
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("баланс после отклонения = %s, ожидалось 1000", got)
	}

	// Повторное отклонение — no-op без второго возврата
	if _, err := repo.Reject(ctx, p.ExternalRef); err != nil {
		t.Fatalf("повторное отклонение: %v", err)
	}
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("баланс после повторного отклонения = %s, ожидалось 1000", got)
	}

	// Отклонённую заявку уже нельзя подтвердить
	_, err = repo.ApplyConfirmed(ctx, p.ExternalRef)
	if !errors.Is(err, common.ErrPaymentConflict) {
		t.Fatalf("ожидалась ErrPaymentConflict, получили %v", err)
	}
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "100")

	_, err := repo.CreateWithdrawal(ctx, 100, decimal.RequireFromString("600"), "карта")
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("ожидалась ErrInsufficientBalance, получили %v", err)
	}

	// Ни заявки, ни списания
	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&n); err != nil || n != 0 {
		t.Errorf("заявок в БД = %d (err=%v), ожидалось 0", n, err)
	}
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("баланс = %s, ожидалось 100", got)
	}
}

func TestWebhookUnknownRef(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool, lockTimeout)

	_, err := repo.ApplyConfirmed(context.Background(), "нет-такого-платежа")
	if !errors.Is(err, common.ErrPaymentNotFound) {
		t.Fatalf("ожидалась ErrPaymentNotFound, получили %v", err)
	}
}

func TestStaleWithdrawalsExpired(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	p, err := repo.CreateWithdrawal(ctx, 100, decimal.RequireFromString("600"), "карта")
	if err != nil {
		t.Fatalf("создание вывода: %v", err)
	}

	// Состариваем заявку напрямую в БД
	if _, err := pool.Exec(ctx, `
		UPDATE payments SET created_at = NOW() - INTERVAL '3 days' WHERE external_ref = $1
	`, p.ExternalRef); err != nil {
		t.Fatalf("состаривание заявки: %v", err)
	}

	refs, err := repo.ListStaleWithdrawals(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("выборка просроченных: %v", err)
	}
	if len(refs) != 1 || refs[0] != p.ExternalRef {
		t.Fatalf("просроченные = %v, ожидалась одна заявка %s", refs, p.ExternalRef)
	}

	if _, err := repo.Reject(ctx, refs[0]); err != nil {
		t.Fatalf("отклонение просроченной: %v", err)
	}
	if got := balanceOf(t, pool, 100); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("баланс после возврата = %s, ожидалось 1000", got)
	}
}
