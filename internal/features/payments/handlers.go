// Package payments — handlers.go: HTTP-обработчики платежей.
// Вебхук шлюза регистрируется отдельно — без пользовательской авторизации.
package payments

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/api"
	"jeanbet.ru/betting-webapp/internal/api/middleware"
)

// Handler — HTTP-обработчики платежей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register вешает пользовательские маршруты (группа с RequireUser).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/deposits", h.createDeposit)
	r.POST("/withdrawals", h.createWithdrawal)
	r.GET("/payments", h.myPayments)
}

// RegisterWebhook вешает вебхук шлюза (без RequireUser: шлюз — не пользователь,
// подлинность обеспечивается сетевым периметром).
func (h *Handler) RegisterWebhook(r gin.IRouter) {
	r.POST("/webhooks/payments", h.webhook)
}

// RegisterAdmin вешает админские маршруты.
func (h *Handler) RegisterAdmin(r gin.IRouter) {
	r.GET("/withdrawals/pending", h.pendingWithdrawals)
	r.POST("/withdrawals/:ref/confirm", h.confirmWithdrawal)
	r.POST("/withdrawals/:ref/reject", h.rejectWithdrawal)
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	// Референс шлюза, если инвойс уже создан на стороне клиента
	ExternalRef string `json:"external_ref"`
}

func (h *Handler) createDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	p, err := h.service.CreateDeposit(c.Request.Context(), middleware.UserID(c), req.Amount, req.ExternalRef)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, p)
}

type withdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Destination string          `json:"destination" binding:"required"`
}

func (h *Handler) createWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	p, err := h.service.CreateWithdrawal(c.Request.Context(), middleware.UserID(c), req.Amount, req.Destination)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, p)
}

func (h *Handler) myPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.service.GetUserPayments(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, list)
}

// webhook принимает нотификацию шлюза. Повторная доставка того же события
// безопасна — обработка идемпотентна по external_ref.
func (h *Handler) webhook(c *gin.Context) {
	var ev WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		api.BadRequest(c, "некорректное тело вебхука")
		return
	}

	p, err := h.service.HandleWebhook(c.Request.Context(), ev)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"external_ref": p.ExternalRef, "status": p.Status})
}

func (h *Handler) pendingWithdrawals(c *gin.Context) {
	list, err := h.service.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, list)
}

func (h *Handler) confirmWithdrawal(c *gin.Context) {
	p, err := h.service.ConfirmWithdrawal(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, p)
}

func (h *Handler) rejectWithdrawal(c *gin.Context) {
	p, err := h.service.RejectWithdrawal(c.Request.Context(), c.Param("ref"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, p)
}
