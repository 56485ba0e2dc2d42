// Package payments реализует пополнения и выводы средств через внешний
// платёжный шлюз. models.go описывает структуры таблицы payments.
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Направления платежа.
const (
	DirectionDeposit    = "deposit"
	DirectionWithdrawal = "withdrawal"
)

// Статусы платежа. pending — единственный нетерминальный статус,
// из него платёж переходит ровно один раз в completed или rejected.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Payment представляет один платёж (пополнение или вывод).
//
// ExternalRef — уникальный ключ, связывающий платёж с внешним шлюзом.
// Именно по нему приходят вебхуки, и уникальность по нему обеспечивает
// идемпотентность обработки на уровне БД.
type Payment struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Direction   string          `db:"direction" json:"direction"`
	ExternalRef string          `db:"external_ref" json:"external_ref"`
	Status      string          `db:"status" json:"status"`
	Destination *string         `db:"destination" json:"destination,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// WebhookEvent — нотификация от платёжного шлюза.
// Шлюз может присылать событие многократно — обработка идемпотентна.
type WebhookEvent struct {
	Event       string          `json:"event"`
	ExternalRef string          `json:"paymentReference" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status" binding:"required"`
}
