// Package app собирает приложение: подключения, репозитории, сервисы,
// обработчики, HTTP-сервер и планировщик. main только вызывает Run.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/db/postgres"
	"jeanbet.ru/betting-webapp/internal/features/admin"
	"jeanbet.ru/betting-webapp/internal/features/betting"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
	"jeanbet.ru/betting-webapp/internal/features/payments"
	"jeanbet.ru/betting-webapp/internal/features/pricing"
	"jeanbet.ru/betting-webapp/internal/features/users"
	"jeanbet.ru/betting-webapp/internal/jobs"
	"jeanbet.ru/betting-webapp/internal/notify"
)

// App держит всё, что нужно закрыть при остановке.
type App struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	rdb       *redis.Client
	server    *http.Server
	scheduler *jobs.Scheduler
}

// New собирает приложение. Порядок: соединения → миграции → слои фич → HTTP.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("Миграции применены")

	// Redis опционален: без него цены читаются напрямую из Postgres
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = pricing.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("Подключение к Redis установлено")
	} else {
		log.Warn("REDIS_ADDR не задан, кэш коэффициентов отключён")
	}

	// Telegram опционален: без токена уведомления глушатся
	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			pool.Close()
			return nil, err
		}
		notifier = notify.NewTelegramNotifier(botAPI)
		log.WithField("bot", botAPI.Self.UserName).Info("Telegram-уведомления включены")
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN не задан, уведомления отключены")
	}

	// Репозитории
	usersRepo := users.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool, cfg.DBLockTimeout)
	pricingRepo := pricing.NewRepository(pool)
	bettingRepo := betting.NewRepository(pool, cfg.DBLockTimeout)
	paymentsRepo := payments.NewRepository(pool, cfg.DBLockTimeout)
	adminRepo := admin.NewRepository(pool)

	// Сервисы
	priceCache := pricing.NewCache(rdb, cfg.OddsCacheTTL)
	priceProvider := pricing.NewProvider(pricingRepo, priceCache, cfg)
	usersService := users.NewService(usersRepo, ledgerRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	pricingService := pricing.NewService(pricingRepo, priceProvider)
	bettingService := betting.NewService(bettingRepo, priceProvider, notifier, cfg)
	paymentsService := payments.NewService(paymentsRepo, notifier, cfg)
	adminService := admin.NewService(adminRepo, usersService, cfg)

	// HTTP
	router := NewRouter(cfg, Handlers{
		Users:    users.NewHandler(usersService),
		Ledger:   ledger.NewHandler(ledgerService),
		Betting:  betting.NewHandler(bettingService),
		Payments: payments.NewHandler(paymentsService),
		Pricing:  pricing.NewHandler(pricingService, priceProvider),
		Admin:    admin.NewHandler(adminService, usersService, ledgerService),
	})

	scheduler, err := jobs.NewScheduler(cfg, paymentsService, adminService)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		cfg:  cfg,
		pool: pool,
		rdb:  rdb,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
	}, nil
}

// Run запускает сервер и блокируется до SIGINT/SIGTERM,
// после чего гасит всё в обратном порядке.
func (a *App) Run() error {
	if err := a.scheduler.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", a.cfg.HTTPAddr).Info("HTTP-сервер запущен")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Получен сигнал остановки")
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Ошибка остановки HTTP-сервера")
	}
	a.scheduler.Stop()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	a.pool.Close()
	log.Info("Сервис остановлен")
}
