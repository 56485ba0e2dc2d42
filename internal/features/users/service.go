// Package users — service.go содержит бизнес-логику работы с пользователями.
// Сервис координирует регистрацию при первом входе из WebApp
// и проверку, что пользователь не забанен.
package users

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
)

// Service управляет пользователями.
type Service struct {
	repo       *Repository
	ledgerRepo *ledger.Repository
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository, ledgerRepo *ledger.Repository) *Service {
	return &Service{repo: repo, ledgerRepo: ledgerRepo}
}

// Register регистрирует пользователя при первом входе (или обновляет имя).
// Вместе с записью пользователя создаётся нулевой баланс — все дальнейшие
// изменения баланса идут только через операции леджера.
func (s *Service) Register(ctx context.Context, userID int64, username, firstName string) (*User, error) {
	u, err := s.repo.Upsert(ctx, &User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.EnsureBalance(ctx, userID); err != nil {
		return nil, fmt.Errorf("ошибка создания баланса: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"name":    u.DisplayName(),
	}).Debug("Пользователь зарегистрирован/обновлён")

	return u, nil
}

// Get возвращает пользователя, отклоняя забаненных.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsBanned {
		return nil, common.ErrUserBanned
	}
	return u, nil
}

// List возвращает всех пользователей с балансами (для админки).
func (s *Service) List(ctx context.Context) ([]*UserWithBalance, error) {
	return s.repo.List(ctx)
}

// IsAdminFlag проверяет флаг администратора в БД.
// Используется авторизационным слоем вместе со списком ADMIN_IDS.
func (s *Service) IsAdminFlag(ctx context.Context, userID int64) (bool, error) {
	u, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

// SetAdmin выдаёт/забирает права администратора (только для админа).
func (s *Service) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	if err := s.repo.SetAdmin(ctx, userID, isAdmin); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "is_admin": isAdmin}).Info("Права администратора изменены")
	return nil
}

// Profile возвращает пользователя вместе с записью баланса
// (текущий баланс и суммарные обороты) для экрана профиля WebApp.
func (s *Service) Profile(ctx context.Context, userID int64) (*User, *ledger.Balance, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.ledgerRepo.GetTotalStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, b, nil
}
