// Интеграционные тесты расчёта ставок. Требуют живой PostgreSQL:
//
//	DATABASE_URL=postgres://... go test ./internal/features/betting/
//
// Без DATABASE_URL тесты пропускаются.
package betting

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

// seedUser создаёт пользователя со стартовым балансом.
func seedUser(t *testing.T, pool *pgxpool.Pool, userID int64, balance string) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO users (user_id, username) VALUES ($1, $2)
	`, userID, "user")
	if err != nil {
		t.Fatalf("создание пользователя: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO balances (user_id, balance) VALUES ($1, $2)
	`, userID, decimal.RequireFromString(balance))
	if err != nil {
		t.Fatalf("создание баланса: %v", err)
	}
}

func balanceOf(t *testing.T, ledgerRepo *ledger.Repository, userID int64) decimal.Decimal {
	t.Helper()
	b, err := ledgerRepo.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("чтение баланса: %v", err)
	}
	return b
}

func TestPlaceBetDebitsStake(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)
	ledgerRepo := ledger.NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	bet, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("200"), 1, decimal.RequireFromString("1.85"))
	if err != nil {
		t.Fatalf("размещение ставки: %v", err)
	}
	if bet.Status != StatusPending {
		t.Errorf("статус ставки = %q, ожидался pending", bet.Status)
	}

	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("800")) {
		t.Errorf("баланс после ставки = %s, ожидалось 800", got)
	}
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)
	ledgerRepo := ledger.NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "100")

	_, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("200"), 1, decimal.RequireFromString("1.85"))
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("ожидалась ErrInsufficientBalance, получили %v", err)
	}

	// Частичных изменений быть не должно
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("баланс после отказа = %s, ожидалось 100", got)
	}
	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM bets`).Scan(&n); err != nil || n != 0 {
		t.Errorf("ставок в БД = %d (err=%v), ожидалось 0", n, err)
	}
}

func TestSettlePaysWinnersOnce(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)
	ledgerRepo := ledger.NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000") // выиграет
	seedUser(t, pool, 200, "500")  // проиграет

	if _, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("200"), 1, decimal.RequireFromString("1.85")); err != nil {
		t.Fatalf("ставка победителя: %v", err)
	}
	if _, err := repo.PlaceBet(ctx, 200, decimal.RequireFromString("100"), 2, decimal.RequireFromString("2.10")); err != nil {
		t.Fatalf("ставка проигравшего: %v", err)
	}

	settlement, settled, err := repo.Settle(ctx, 1)
	if err != nil {
		t.Fatalf("расчёт: %v", err)
	}
	if settlement.BetsWon != 1 || settlement.BetsLost != 1 {
		t.Errorf("won/lost = %d/%d, ожидалось 1/1", settlement.BetsWon, settlement.BetsLost)
	}
	if !settlement.TotalPaid.Equal(decimal.RequireFromString("370")) {
		t.Errorf("total_paid = %s, ожидалось 370", settlement.TotalPaid)
	}
	if len(settled) != 2 {
		t.Errorf("рассчитано ставок = %d, ожидалось 2", len(settled))
	}

	// 1000 - 200 + 200*1.85 = 1170
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("1170")) {
		t.Errorf("баланс победителя = %s, ожидалось 1170", got)
	}
	// 500 - 100, ставка сгорела
	if got := balanceOf(t, ledgerRepo, 200); !got.Equal(decimal.RequireFromString("400")) {
		t.Errorf("баланс проигравшего = %s, ожидалось 400", got)
	}

	// Повторный расчёт не находит активных ставок и ничего не меняет
	_, _, err = repo.Settle(ctx, 1)
	if !errors.Is(err, common.ErrNoPendingBets) {
		t.Fatalf("повторный расчёт: ожидалась ErrNoPendingBets, получили %v", err)
	}
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("1170")) {
		t.Errorf("баланс после повторного расчёта = %s, ожидалось 1170", got)
	}
}

func TestSettleUsesStoredOdds(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)
	ledgerRepo := ledger.NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	// Ставка по коэффициенту 1.85
	if _, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("200"), 1, decimal.RequireFromString("1.85")); err != nil {
		t.Fatalf("ставка: %v", err)
	}

	// Админ меняет коэффициент гонщика ПОСЛЕ размещения
	if _, err := pool.Exec(ctx, `UPDATE racers SET odds = 3.00 WHERE id = 1`); err != nil {
		t.Fatalf("смена коэффициента: %v", err)
	}

	if _, _, err := repo.Settle(ctx, 1); err != nil {
		t.Fatalf("расчёт: %v", err)
	}

	// Выплата по зафиксированной цене: 200*1.85, а не 200*3.00
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("1170")) {
		t.Errorf("баланс = %s, ожидалось 1170 (по цене размещения)", got)
	}
}

func TestCancelRefundsOnce(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)
	ledgerRepo := ledger.NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	bet, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("300"), 2, decimal.RequireFromString("2.10"))
	if err != nil {
		t.Fatalf("ставка: %v", err)
	}

	canceled, err := repo.Cancel(ctx, bet.ID)
	if err != nil {
		t.Fatalf("отмена: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Errorf("статус = %q, ожидался canceled", canceled.Status)
	}
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("баланс после отмены = %s, ожидалось 1000", got)
	}

	// Повторная отмена — конфликт без второго возврата
	_, err = repo.Cancel(ctx, bet.ID)
	if !errors.Is(err, common.ErrBetAlreadySettled) {
		t.Fatalf("повторная отмена: ожидалась ErrBetAlreadySettled, получили %v", err)
	}
	if got := balanceOf(t, ledgerRepo, 100); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("баланс после повторной отмены = %s, ожидалось 1000", got)
	}
}

func TestCancelSettledBet(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")

	bet, err := repo.PlaceBet(ctx, 100, decimal.RequireFromString("200"), 1, decimal.RequireFromString("1.85"))
	if err != nil {
		t.Fatalf("ставка: %v", err)
	}
	if _, _, err := repo.Settle(ctx, 1); err != nil {
		t.Fatalf("расчёт: %v", err)
	}

	_, err = repo.Cancel(ctx, bet.ID)
	if !errors.Is(err, common.ErrBetAlreadySettled) {
		t.Fatalf("отмена рассчитанной ставки: ожидалась ErrBetAlreadySettled, получили %v", err)
	}
}

func TestCancelMissingBet(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool, lockTimeout)

	_, err := repo.Cancel(context.Background(), 12345)
	if !errors.Is(err, common.ErrBetNotFound) {
		t.Fatalf("ожидалась ErrBetNotFound, получили %v", err)
	}
}

// Сумма всех балансов и журнал операций должны сходиться после полного
// цикла: пополнение условно через seed, ставки, расчёт.
func TestConservationAcrossSettlement(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool, lockTimeout)

	seedUser(t, pool, 100, "1000")
	seedUser(t, pool, 200, "1000")
	seedUser(t, pool, 300, "1000")

	stake := decimal.RequireFromString("100")
	odds1 := decimal.RequireFromString("1.85")
	odds2 := decimal.RequireFromString("2.10")

	for _, c := range []struct {
		userID  int64
		racerID int64
		odds    decimal.Decimal
	}{
		{100, 1, odds1},
		{200, 2, odds2},
		{300, 1, odds1},
	} {
		if _, err := repo.PlaceBet(ctx, c.userID, stake, c.racerID, c.odds); err != nil {
			t.Fatalf("ставка пользователя %d: %v", c.userID, err)
		}
	}

	settlement, _, err := repo.Settle(ctx, 1)
	if err != nil {
		t.Fatalf("расчёт: %v", err)
	}

	// 3000 - 3*100 (ставки) + выплаты
	var total decimal.Decimal
	if err := pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM balances`).Scan(&total); err != nil {
		t.Fatalf("сумма балансов: %v", err)
	}
	want := decimal.RequireFromString("2700").Add(settlement.TotalPaid)
	if !total.Equal(want) {
		t.Errorf("сумма балансов = %s, ожидалось %s", total, want)
	}

	// Выплачено два выигрыша по 185
	if !settlement.TotalPaid.Equal(decimal.RequireFromString("370")) {
		t.Errorf("total_paid = %s, ожидалось 370", settlement.TotalPaid)
	}
}
