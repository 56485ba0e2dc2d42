// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Режимы ценообразования (см. internal/features/pricing).
const (
	PricingModeFixed  = "fixed"  // фиксированный коэффициент из карточки гонщика
	PricingModeMargin = "margin" // коэффициент из вероятностей с маржой
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// --- Telegram ---
	// Токен нужен только для уведомлений. Пустой токен = уведомления отключены
	// (удобно для локальной разработки и тестов).
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// --- Admin ---
	AdminIDsRaw       string  `envconfig:"ADMIN_IDS"`
	AdminIDs          []int64 `envconfig:"-"` // заполним вручную
	AdminPasswordHash string  `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"betuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"jeanbet"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	// Лимит ожидания блокировки строки внутри денежных транзакций.
	// При превышении клиент получает retryable-ошибку, а не вечное ожидание.
	DBLockTimeout time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"3s"`

	// --- Redis (кэш коэффициентов) ---
	// Пустой адрес = кэш отключён, коэффициенты читаются напрямую из БД.
	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	OddsCacheTTL time.Duration `envconfig:"ODDS_CACHE_TTL" default:"10s"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Betting ---
	MinBet        int64   `envconfig:"MIN_BET" default:"50"`
	PricingMode   string  `envconfig:"PRICING_MODE" default:"fixed"`
	PricingMargin float64 `envconfig:"PRICING_MARGIN" default:"0.05"`

	// --- Payments ---
	MinDeposit    int64 `envconfig:"MIN_DEPOSIT" default:"100"`
	MinWithdrawal int64 `envconfig:"MIN_WITHDRAWAL" default:"500"`
	// Заявка на вывод, зависшая в pending дольше этого срока,
	// автоматически отклоняется с возвратом зарезервированных средств.
	WithdrawalPendingTTL time.Duration `envconfig:"WITHDRAWAL_PENDING_TTL" default:"48h"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.MinBet <= 0 {
		return fmt.Errorf("MIN_BET должен быть > 0")
	}
	if c.MinDeposit <= 0 || c.MinWithdrawal <= 0 {
		return fmt.Errorf("MIN_DEPOSIT и MIN_WITHDRAWAL должны быть > 0")
	}
	if c.PricingMode != PricingModeFixed && c.PricingMode != PricingModeMargin {
		return fmt.Errorf("PRICING_MODE должен быть %q или %q", PricingModeFixed, PricingModeMargin)
	}
	if c.PricingMargin < 0 {
		return fmt.Errorf("PRICING_MARGIN не может быть отрицательной")
	}
	if c.DBLockTimeout <= 0 {
		return fmt.Errorf("DB_LOCK_TIMEOUT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
