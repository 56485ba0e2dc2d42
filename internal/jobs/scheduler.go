// Package jobs — фоновые задачи по расписанию (robfig/cron).
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/features/admin"
	"jeanbet.ru/betting-webapp/internal/features/payments"
)

// Scheduler запускает периодические задачи:
//   - отклонение зависших заявок на вывод с возвратом резерва;
//   - чистка протухших админских сессий.
type Scheduler struct {
	cron     *cron.Cron
	payments *payments.Service
	admin    *admin.Service
	ttl      time.Duration
}

// NewScheduler создаёт планировщик в таймзоне приложения.
func NewScheduler(cfg *config.Config, paymentsService *payments.Service, adminService *admin.Service) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		payments: paymentsService,
		admin:    adminService,
		ttl:      cfg.WithdrawalPendingTTL,
	}, nil
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start() error {
	// Зависшие заявки на вывод — каждые 30 минут
	_, err := s.cron.AddFunc("*/30 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.payments.ExpireStale(ctx, s.ttl)
	})
	if err != nil {
		return err
	}

	// Протухшие админские сессии — раз в час
	_, err = s.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.admin.PurgeSessions(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info("Планировщик фоновых задач запущен")
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик остановлен")
}
