// Тесты сборки роутера: маршруты регистрируются без циклов зависимостей,
// а middleware отсекает запросы до обращения к сервисам, поэтому БД не нужна.
package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"jeanbet.ru/betting-webapp/internal/config"
	"jeanbet.ru/betting-webapp/internal/features/admin"
	"jeanbet.ru/betting-webapp/internal/features/betting"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
	"jeanbet.ru/betting-webapp/internal/features/payments"
	"jeanbet.ru/betting-webapp/internal/features/pricing"
	"jeanbet.ru/betting-webapp/internal/features/users"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppEnv:            "development",
		MinBet:            50,
		MinDeposit:        100,
		MinWithdrawal:     500,
		PricingMode:       config.PricingModeFixed,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}

	// Репозитории не нужны: тесты не доходят до обращений к БД
	priceProvider := pricing.NewProvider(nil, pricing.NewCache(nil, 0), cfg)
	usersService := users.NewService(nil, nil)
	ledgerService := ledger.NewService(nil)

	return NewRouter(cfg, Handlers{
		Users:    users.NewHandler(usersService),
		Ledger:   ledger.NewHandler(ledgerService),
		Betting:  betting.NewHandler(betting.NewService(nil, priceProvider, nil, cfg)),
		Payments: payments.NewHandler(payments.NewService(nil, nil, cfg)),
		Pricing:  pricing.NewHandler(pricing.NewService(nil, priceProvider), priceProvider),
		Admin:    admin.NewHandler(admin.NewService(nil, usersService, cfg), usersService, ledgerService),
	})
}

func TestRouterRequiresUser(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/bets", "/api/deposits", "/api/admin/login"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s без X-Telegram-Id: статус = %d, ожидался 401", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"success":false`) {
			t.Errorf("%s: тело вне конверта ошибки: %s", path, w.Body.String())
		}
	}
}

func TestRouterRejectsBadUserID(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/bets", nil)
	req.Header.Set("X-Telegram-Id", "не-число")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", w.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments", strings.NewReader(`{`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("статус = %d, ожидался 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("тело вне конверта ошибки: %s", w.Body.String())
	}
}
