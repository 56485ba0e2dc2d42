// Package pricing — service.go: операции над гонщиками для публичного API
// и админки. Любое изменение карточки сбрасывает кэш цен.
package pricing

import (
	"context"

	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Service управляет списком гонщиков.
type Service struct {
	repo     *Repository
	provider *Provider
}

// NewService создаёт сервис гонщиков.
func NewService(repo *Repository, provider *Provider) *Service {
	return &Service{repo: repo, provider: provider}
}

// ListRacers возвращает активных гонщиков с актуальными коэффициентами
// (коэффициент из снимка, чтобы клиент видел ту же цену, что зафиксируется в ставке).
func (s *Service) ListRacers(ctx context.Context) ([]*Racer, error) {
	racers, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := s.provider.CurrentSheet(ctx)
	if err != nil {
		return nil, err
	}
	for _, rc := range racers {
		if p, ok := sheet.Price(rc.ID); ok {
			rc.Odds = p
		}
	}
	return racers, nil
}

// ListAll возвращает всех гонщиков (для админки).
func (s *Service) ListAll(ctx context.Context) ([]*Racer, error) {
	return s.repo.List(ctx)
}

// CreateRacer добавляет гонщика (админ).
func (s *Service) CreateRacer(ctx context.Context, rc *Racer) (*Racer, error) {
	if rc.Name == "" {
		return nil, common.ErrInvalidOutcome
	}
	if rc.Odds.LessThan(minPrice) {
		rc.Odds = minPrice
	}
	out, err := s.repo.Create(ctx, rc)
	if err != nil {
		return nil, err
	}
	s.provider.Invalidate(ctx)

	log.WithFields(log.Fields{"racer_id": out.ID, "name": out.Name}).Info("Гонщик добавлен")
	return out, nil
}

// UpdateRacer обновляет карточку гонщика (админ).
func (s *Service) UpdateRacer(ctx context.Context, id int64, upd RacerUpdate) (*Racer, error) {
	if upd.Odds != nil && upd.Odds.LessThan(minPrice) {
		return nil, common.ErrInvalidAmount
	}
	out, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.provider.Invalidate(ctx)

	log.WithFields(log.Fields{"racer_id": id}).Info("Карточка гонщика обновлена")
	return out, nil
}
