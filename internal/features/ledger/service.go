// Package ledger — service.go содержит бизнес-логику работы с балансом:
// чтение, ручные корректировки, история операций.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Service управляет балансами пользователей.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис леджера.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userID)
}

// AdjustBalance — корректировка баланса админом вне потока ставок/платежей.
// delta может быть отрицательной; списание ниже нуля отклоняется.
// adminID и note попадают в журнал для аудита.
func (s *Service) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal, adminID int64, note string) (decimal.Decimal, error) {
	if delta.IsZero() || delta.Exponent() < -2 {
		return decimal.Zero, common.ErrInvalidAmount
	}
	if note == "" {
		note = "Ручная корректировка"
	}

	newBalance, err := s.repo.AdjustBalance(ctx, userID, delta,
		fmt.Sprintf("%s (admin %d)", note, adminID))
	if err != nil {
		return decimal.Zero, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"delta":    delta.String(),
		"admin_id": adminID,
	}).Info("Баланс скорректирован админом")

	return newBalance, nil
}

// GetHistory возвращает последние операции пользователя.
func (s *Service) GetHistory(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.GetTransactions(ctx, userID, limit)
}
