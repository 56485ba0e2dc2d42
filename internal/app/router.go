// router.go собирает gin-роутер из обработчиков фич.
package app

import (
	"github.com/gin-gonic/gin"

	"jeanbet.ru/betting-webapp/internal/api/middleware"
	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/features/admin"
	"jeanbet.ru/betting-webapp/internal/features/betting"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
	"jeanbet.ru/betting-webapp/internal/features/payments"
	"jeanbet.ru/betting-webapp/internal/features/pricing"
	"jeanbet.ru/betting-webapp/internal/features/users"
)

// Handlers — обработчики всех фич.
type Handlers struct {
	Users    *users.Handler
	Ledger   *ledger.Handler
	Betting  *betting.Handler
	Payments *payments.Handler
	Pricing  *pricing.Handler
	Admin    *admin.Handler
}

// NewRouter строит роутер со всеми маршрутами и middleware.
//
// Топология:
//
//	/api            — публичное чтение (гонщики, коэффициенты) и вебхук шлюза
//	/api (user)     — всё, что требует X-Telegram-Id
//	/api/admin      — вход/выход админа (нужен только X-Telegram-Id)
//	/api/admin (s)  — остальная админка, требует активной сессии
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger())

	root := r.Group("/api")
	root.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	// Публичные маршруты: список гонщиков и вебхук шлюза
	h.Pricing.Register(root)
	h.Payments.RegisterWebhook(root)

	// Пользовательские маршруты
	user := root.Group("")
	user.Use(middleware.RequireUser())
	h.Users.Register(user)
	h.Ledger.Register(user)
	h.Betting.Register(user)
	h.Payments.Register(user)

	// Вход в админку: пользователь известен, сессии ещё нет
	adminAuth := root.Group("/admin")
	adminAuth.Use(middleware.RequireUser())
	h.Admin.RegisterAuth(adminAuth)

	// Остальная админка — только с активной сессией
	adminGroup := root.Group("/admin")
	adminGroup.Use(middleware.RequireUser(), h.Admin.AuthMiddleware())
	h.Admin.Register(adminGroup)
	h.Betting.RegisterAdmin(adminGroup)
	h.Payments.RegisterAdmin(adminGroup)
	h.Pricing.RegisterAdmin(adminGroup)

	return r
}
