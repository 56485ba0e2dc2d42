// Package pricing управляет гонщиками (исходами) и их коэффициентами.
// models.go описывает структуры данных для таблицы racers и снимка цен.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Racer представляет исход, на который принимаются ставки.
type Racer struct {
	ID          int64            `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	Odds        decimal.Decimal  `db:"odds" json:"odds"`               // Фиксированный коэффициент (режим fixed)
	Probability *decimal.Decimal `db:"probability" json:"probability"` // Оценка вероятности (режим margin)
	IsActive    bool             `db:"is_active" json:"is_active"`
	ImageURL    *string          `db:"image_url" json:"image_url"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// PriceSheet — снимок цен на момент запроса.
// Снимок читается один раз при размещении ставки и передаётся в логику
// явно: никакой общей изменяемой переменной "текущие коэффициенты" нет.
// Зафиксированная в ставке цена больше никогда не пересчитывается.
type PriceSheet struct {
	Version time.Time                 `json:"version"` // Когда снимок сформирован
	Prices  map[int64]decimal.Decimal `json:"prices"`  // racer_id → коэффициент (>= 1.0)
}

// Price возвращает коэффициент для гонщика и признак,
// принимает ли этот исход ставки.
func (ps *PriceSheet) Price(racerID int64) (decimal.Decimal, bool) {
	p, ok := ps.Prices[racerID]
	return p, ok
}

// RacerUpdate — частичное обновление карточки гонщика админом.
// nil-поле означает "не менять".
type RacerUpdate struct {
	Name        *string          `json:"name"`
	Odds        *decimal.Decimal `json:"odds"`
	Probability *decimal.Decimal `json:"probability"`
	IsActive    *bool            `json:"is_active"`
	ImageURL    *string          `json:"image_url"`
}
