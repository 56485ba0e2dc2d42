// Package betting реализует ставки на исход гонки: размещение,
// отмену и расчёт по объявленному победителю.
// models.go описывает структуры данных для таблиц bets и settlements.
package betting

import (
	"time"

	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Статусы ставки. pending — единственный нетерминальный статус;
// из него ставка переходит ровно один раз в won/lost/canceled.
const (
	StatusPending  = "pending"
	StatusWon      = "won"
	StatusLost     = "lost"
	StatusCanceled = "canceled"
)

// Bet представляет одну ставку.
// Коэффициент фиксируется при размещении и больше не меняется —
// выплата считается только по нему, даже если провайдер цен
// к моменту расчёта выдаёт другое значение.
type Bet struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	RacerID   int64           `db:"racer_id" json:"racer_id"`
	Odds      decimal.Decimal `db:"odds" json:"odds"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	SettledAt *time.Time      `db:"settled_at" json:"settled_at,omitempty"`
}

// WinAmount — выплата при выигрыше: ставка × зафиксированный коэффициент.
func (b *Bet) WinAmount() decimal.Decimal {
	return common.RoundMoney(b.Amount.Mul(b.Odds))
}

// ActiveBet — строка для админского списка активных ставок.
type ActiveBet struct {
	Bet
	Username string `db:"username" json:"username"`
}

// Settlement — запись о проведённом расчёте (аудит).
type Settlement struct {
	ID            int64           `db:"id" json:"id"`
	WinnerRacerID int64           `db:"winner_racer_id" json:"winner_racer_id"`
	BetsWon       int             `db:"bets_won" json:"bets_won"`
	BetsLost      int             `db:"bets_lost" json:"bets_lost"`
	TotalPaid     decimal.Decimal `db:"total_paid" json:"total_paid"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// settledBet — результат расчёта одной ставки, нужен для уведомлений
// после коммита.
type settledBet struct {
	UserID int64
	Won    bool
	Payout decimal.Decimal
}
