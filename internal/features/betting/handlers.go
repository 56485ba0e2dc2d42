// Package betting — handlers.go: HTTP-обработчики ставок.
// Пользовательские маршруты и админские (расчёт, отмена) разнесены
// по разным группам с разной авторизацией.
package betting

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/api"
	"jeanbet.ru/betting-webapp/internal/api/middleware"
)

// Handler — HTTP-обработчики ставок.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register вешает пользовательские маршруты (группа с RequireUser).
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/bets", h.placeBet)
	r.GET("/bets", h.myBets)
}

// RegisterAdmin вешает админские маршруты.
func (h *Handler) RegisterAdmin(r gin.IRouter) {
	r.GET("/bets/active", h.activeBets)
	r.POST("/settle", h.settle)
	r.POST("/bets/:id/cancel", h.cancelBet)
}

type placeBetRequest struct {
	RacerID int64           `json:"racer_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) placeBet(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	bet, err := h.service.PlaceBet(c.Request.Context(), middleware.UserID(c), req.RacerID, req.Amount)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, bet)
}

func (h *Handler) myBets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	bets, err := h.service.GetUserBets(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, bets)
}

func (h *Handler) activeBets(c *gin.Context) {
	bets, err := h.service.GetActiveBets(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, bets)
}

type settleRequest struct {
	WinnerRacerID int64 `json:"winner_racer_id" binding:"required"`
}

// settle — объявление победителя гонки. Идемпотентно: повторный вызов
// возвращает нулевой расчёт, балансы не меняются.
func (h *Handler) settle(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	settlement, err := h.service.Settle(c.Request.Context(), req.WinnerRacerID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, settlement)
}

func (h *Handler) cancelBet(c *gin.Context) {
	betID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		api.BadRequest(c, "некорректный идентификатор ставки")
		return
	}

	bet, err := h.service.CancelBet(c.Request.Context(), betID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, bet)
}
