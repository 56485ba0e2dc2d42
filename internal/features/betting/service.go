// Package betting — service.go координирует размещение, отмену и расчёт
// ставок. Валидация до любых изменений; уведомления — после коммита.
package betting

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/features/pricing"
	"jeanbet.ru/betting-webapp/internal/notify"
)

// Service управляет ставками.
type Service struct {
	repo     *Repository
	provider *pricing.Provider
	notifier notify.Notifier
	minBet   decimal.Decimal
}

// NewService создаёт сервис ставок.
func NewService(repo *Repository, provider *pricing.Provider, notifier notify.Notifier, cfg *config.Config) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		minBet:   decimal.NewFromInt(cfg.MinBet),
	}
}

// PlaceBet размещает ставку.
//
// Цена читается из актуального снимка один раз и передаётся в размещение
// явно: цена, которую увидел пользователь, и цена в ставке — одна и та же.
// Вся валидация — до обращения к балансу.
func (s *Service) PlaceBet(ctx context.Context, userID int64, racerID int64, amount decimal.Decimal) (*Bet, error) {
	if !common.ValidAmount(amount) {
		return nil, common.ErrInvalidAmount
	}
	if amount.LessThan(s.minBet) {
		return nil, common.ErrStakeTooSmall
	}

	odds, err := s.provider.CurrentPrice(ctx, racerID)
	if err != nil {
		return nil, err
	}

	bet, err := s.repo.PlaceBet(ctx, userID, amount, racerID, odds)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"bet_id":   bet.ID,
		"user_id":  userID,
		"racer_id": racerID,
		"amount":   amount.String(),
		"odds":     odds.String(),
	}).Info("Ставка размещена")

	return bet, nil
}

// Settle рассчитывает все активные ставки по объявленному победителю.
// Идемпотентно: повторный вызов после полного расчёта ничего не меняет
// и возвращает пустой результат.
//
// Уведомления собираются в хуки и запускаются после возврата из
// репозитория, то есть заведомо после коммита: сбой доставки не может
// откатить расчёт.
func (s *Service) Settle(ctx context.Context, winnerRacerID int64) (*Settlement, error) {
	// Победителем может быть и деактивированный гонщик,
	// поэтому проверяем существование, а не снимок цен
	if err := s.provider.ValidOutcome(ctx, winnerRacerID); err != nil {
		return nil, common.ErrInvalidOutcome
	}

	settlement, settled, err := s.repo.Settle(ctx, winnerRacerID)
	if err != nil {
		if errors.Is(err, common.ErrNoPendingBets) {
			// Нечего рассчитывать — например, повторное объявление победителя
			return &Settlement{WinnerRacerID: winnerRacerID, TotalPaid: decimal.Zero}, nil
		}
		return nil, err
	}

	var hooks notify.Hooks
	for _, sb := range settled {
		if !sb.Won {
			continue
		}
		sb := sb
		hooks.Add(func() {
			s.notifier.Notify(sb.UserID,
				fmt.Sprintf("🎉 Ваша ставка выиграла! Вы получили %s", common.FormatRubles(sb.Payout)))
		})
	}
	hooks.Run()

	log.WithFields(log.Fields{
		"winner_racer_id": winnerRacerID,
		"bets_won":        settlement.BetsWon,
		"bets_lost":       settlement.BetsLost,
		"total_paid":      settlement.TotalPaid.String(),
	}).Info("Расчёт проведён")

	return settlement, nil
}

// CancelBet отменяет активную ставку с возвратом средств (админ).
// Для уже рассчитанной/отменённой ставки — ErrBetAlreadySettled.
func (s *Service) CancelBet(ctx context.Context, betID int64) (*Bet, error) {
	bet, err := s.repo.Cancel(ctx, betID)
	if err != nil {
		return nil, err
	}

	var hooks notify.Hooks
	hooks.Add(func() {
		s.notifier.Notify(bet.UserID,
			fmt.Sprintf("Ваша ставка отменена, %s возвращены на баланс", common.FormatRubles(bet.Amount)))
	})
	hooks.Run()

	log.WithFields(log.Fields{"bet_id": betID, "user_id": bet.UserID}).Info("Ставка отменена")
	return bet, nil
}

// GetUserBets возвращает историю ставок пользователя.
func (s *Service) GetUserBets(ctx context.Context, userID int64, limit int) ([]*Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetUserBets(ctx, userID, limit)
}

// GetActiveBets возвращает все активные ставки (админка).
func (s *Service) GetActiveBets(ctx context.Context) ([]*ActiveBet, error) {
	return s.repo.GetActiveBets(ctx)
}
