// Package payments — service.go: валидация заявок и маппинг статусов
// вебхука на операции репозитория.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/notify"
)

// Service управляет платежами.
type Service struct {
	repo          *Repository
	notifier      notify.Notifier
	minDeposit    decimal.Decimal
	minWithdrawal decimal.Decimal
}

// NewService создаёт сервис платежей.
func NewService(repo *Repository, notifier notify.Notifier, cfg *config.Config) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		repo:          repo,
		notifier:      notifier,
		minDeposit:    decimal.NewFromInt(cfg.MinDeposit),
		minWithdrawal: decimal.NewFromInt(cfg.MinWithdrawal),
	}
}

// CreateDeposit создаёт заявку на пополнение. Если шлюз уже выдал
// референс — используем его, иначе генерируем свой; деньги появятся
// на балансе после вебхука по этому референсу.
func (s *Service) CreateDeposit(ctx context.Context, userID int64, amount decimal.Decimal, externalRef string) (*Payment, error) {
	if !common.ValidAmount(amount) {
		return nil, common.ErrInvalidAmount
	}
	if amount.LessThan(s.minDeposit) {
		return nil, common.ErrAmountTooSmall
	}

	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		externalRef = uuid.NewString()
	}

	p, err := s.repo.CreateDeposit(ctx, userID, amount, externalRef)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":      userID,
		"amount":       amount.String(),
		"external_ref": p.ExternalRef,
	}).Info("Создана заявка на пополнение")
	return p, nil
}

// CreateWithdrawal создаёт заявку на вывод с немедленным резервированием
// средств. Реквизиты обязательны.
func (s *Service) CreateWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, destination string) (*Payment, error) {
	if !common.ValidAmount(amount) {
		return nil, common.ErrInvalidAmount
	}
	if amount.LessThan(s.minWithdrawal) {
		return nil, common.ErrAmountTooSmall
	}
	if strings.TrimSpace(destination) == "" {
		return nil, common.ErrEmptyDestination
	}

	p, err := s.repo.CreateWithdrawal(ctx, userID, amount, strings.TrimSpace(destination))
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":      userID,
		"amount":       amount.String(),
		"external_ref": p.ExternalRef,
	}).Info("Создана заявка на вывод")
	return p, nil
}

// HandleWebhook обрабатывает нотификацию шлюза. Статусы succeeded/paid
// подтверждают платёж, canceled/failed — отклоняют; остальные
// игнорируются (шлюз шлёт и промежуточные статусы).
// Если шлюз прислал сумму — она должна совпадать с суммой заявки.
func (s *Service) HandleWebhook(ctx context.Context, ev WebhookEvent) (*Payment, error) {
	if !ev.Amount.IsZero() {
		p, err := s.repo.GetByRef(ctx, ev.ExternalRef)
		if err != nil {
			return nil, err
		}
		if !p.Amount.Equal(ev.Amount) {
			log.WithFields(log.Fields{
				"external_ref": ev.ExternalRef,
				"expected":     p.Amount.String(),
				"got":          ev.Amount.String(),
			}).Warn("Сумма в вебхуке не совпадает с заявкой")
			return nil, common.ErrPaymentConflict
		}
	}

	switch ev.Status {
	case "succeeded", "paid":
		p, err := s.repo.ApplyConfirmed(ctx, ev.ExternalRef)
		if err != nil {
			return nil, err
		}
		s.notifyResult(p)
		log.WithFields(log.Fields{
			"external_ref": ev.ExternalRef,
			"direction":    p.Direction,
		}).Info("Платёж подтверждён")
		return p, nil

	case "canceled", "failed":
		p, err := s.repo.Reject(ctx, ev.ExternalRef)
		if err != nil {
			return nil, err
		}
		s.notifyResult(p)
		log.WithFields(log.Fields{
			"external_ref": ev.ExternalRef,
			"direction":    p.Direction,
		}).Info("Платёж отклонён")
		return p, nil

	default:
		// Промежуточный статус — подтверждаем приём, ничего не меняем
		log.WithFields(log.Fields{
			"external_ref": ev.ExternalRef,
			"status":       ev.Status,
		}).Debug("Промежуточный статус платежа, пропускаем")
		return s.repo.GetByRef(ctx, ev.ExternalRef)
	}
}

// RejectWithdrawal отклоняет заявку на вывод вручную (админ).
func (s *Service) RejectWithdrawal(ctx context.Context, externalRef string) (*Payment, error) {
	p, err := s.repo.GetByRef(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	if p.Direction != DirectionWithdrawal {
		return nil, common.ErrPaymentNotFound
	}
	out, err := s.repo.Reject(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	s.notifyResult(out)
	log.WithField("external_ref", externalRef).Info("Заявка на вывод отклонена администратором")
	return out, nil
}

// ConfirmWithdrawal подтверждает выплату по заявке вручную (админ).
func (s *Service) ConfirmWithdrawal(ctx context.Context, externalRef string) (*Payment, error) {
	p, err := s.repo.GetByRef(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	if p.Direction != DirectionWithdrawal {
		return nil, common.ErrPaymentNotFound
	}
	out, err := s.repo.ApplyConfirmed(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	s.notifyResult(out)
	log.WithField("external_ref", externalRef).Info("Выплата по заявке подтверждена")
	return out, nil
}

// ExpireStale отклоняет зависшие заявки на вывод с возвратом резерва.
// Вызывается планировщиком. Каждая заявка отклоняется в своей транзакции,
// поэтому гонка с одновременным вебхуком решается построчно.
func (s *Service) ExpireStale(ctx context.Context, ttl time.Duration) int {
	refs, err := s.repo.ListStaleWithdrawals(ctx, ttl)
	if err != nil {
		log.WithError(err).Error("Не удалось выбрать просроченные заявки на вывод")
		return 0
	}

	expired := 0
	for _, ref := range refs {
		p, err := s.repo.Reject(ctx, ref)
		if err != nil {
			// Заявку успел обработать вебхук — это нормально
			log.WithField("external_ref", ref).WithError(err).Warn("Просроченная заявка не отклонена")
			continue
		}
		s.notifyResult(p)
		expired++
	}

	if expired > 0 {
		log.WithField("count", expired).Info("Просроченные заявки на вывод отклонены")
	}
	return expired
}

// GetUserPayments возвращает историю платежей пользователя.
func (s *Service) GetUserPayments(ctx context.Context, userID int64, limit int) ([]*Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetUserPayments(ctx, userID, limit)
}

// ListPendingWithdrawals — ожидающие выплаты заявки (админка).
func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]*Payment, error) {
	return s.repo.ListPendingWithdrawals(ctx)
}

// notifyResult шлёт пользователю сообщение о результате платежа
// (после коммита — репозиторий уже вернул управление).
func (s *Service) notifyResult(p *Payment) {
	var text string
	switch {
	case p.Direction == DirectionDeposit && p.Status == StatusCompleted:
		text = fmt.Sprintf("✅ Баланс пополнен на %s", common.FormatRubles(p.Amount))
	case p.Direction == DirectionDeposit && p.Status == StatusRejected:
		text = "❌ Пополнение не прошло, попробуйте ещё раз"
	case p.Direction == DirectionWithdrawal && p.Status == StatusCompleted:
		text = fmt.Sprintf("✅ Выплата %s отправлена", common.FormatRubles(p.Amount))
	case p.Direction == DirectionWithdrawal && p.Status == StatusRejected:
		text = fmt.Sprintf("↩️ Заявка на вывод отклонена, %s возвращены на баланс", common.FormatRubles(p.Amount))
	default:
		return
	}
	s.notifier.Notify(p.UserID, text)
}
