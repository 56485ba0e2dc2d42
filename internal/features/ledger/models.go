// Package ledger управляет балансами пользователей — единственным
// изменяемым денежным агрегатом. models.go описывает структуры
// для балансов и журнала операций.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance представляет баланс пользователя.
// Каждый пользователь имеет ровно одну запись в таблице balances.
type Balance struct {
	ID          int64           `db:"id" json:"-"`                      // ID записи
	UserID      int64           `db:"user_id" json:"user_id"`           // Telegram user ID
	Balance     decimal.Decimal `db:"balance" json:"balance"`           // Текущий баланс (не бывает отрицательным)
	TotalEarned decimal.Decimal `db:"total_earned" json:"total_earned"` // Сколько всего зачислено
	TotalSpent  decimal.Decimal `db:"total_spent" json:"total_spent"`   // Сколько всего списано
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction представляет одну денежную операцию.
// Все движения средств (ставки, выигрыши, платежи, корректировки)
// записываются сюда — журнал только дописывается, записи не меняются.
type Transaction struct {
	ID              int64           `db:"id" json:"id"`                             // ID операции
	FromUserID      *int64          `db:"from_user_id" json:"from_user_id"`         // Плательщик (nil для системных зачислений)
	ToUserID        *int64          `db:"to_user_id" json:"to_user_id"`             // Получатель (nil для системных списаний)
	Amount          decimal.Decimal `db:"amount" json:"amount"`                     // Сумма (всегда положительная)
	TransactionType string          `db:"transaction_type" json:"transaction_type"` // Тип: 'bet_stake', 'bet_win', 'deposit', ...
	Description     string          `db:"description" json:"description"`           // Описание для отображения
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`             // Время операции
}

// Допустимые типы операций
const (
	TxTypeBetStake    = "bet_stake"         // Списание ставки
	TxTypeBetWin      = "bet_win"           // Выплата выигрыша
	TxTypeBetRefund   = "bet_refund"        // Возврат ставки при отмене
	TxTypeDeposit     = "deposit"           // Пополнение через платёжный шлюз
	TxTypeWithdrawal  = "withdrawal"        // Резерв под вывод средств
	TxTypeWithdRefund = "withdrawal_refund" // Возврат резерва при отклонении вывода
	TxTypeAdjustment  = "adjustment"        // Ручная корректировка админом
)
