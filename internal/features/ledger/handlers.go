// Package ledger — handlers.go: HTTP-обработчики баланса и истории операций.
package ledger

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"jeanbet.ru/betting-webapp/internal/api"
	"jeanbet.ru/betting-webapp/internal/api/middleware"
)

// Handler — HTTP-обработчики леджера.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register вешает маршруты на группу, защищённую RequireUser.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/balance", h.balance)
	r.GET("/transactions", h.transactions)
}

func (h *Handler) balance(c *gin.Context) {
	balance, err := h.service.GetBalance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"balance": balance})
}

func (h *Handler) transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	history, err := h.service.GetHistory(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, history)
}
