// Package admin — handlers.go: HTTP-обработчики админки и middleware
// авторизации, которым защищаются все остальные админские маршруты.
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/api"
	"jeanbet.ru/betting-webapp/internal/api/middleware"
	"jeanbet.ru/betting-webapp/internal/common"
	"jeanbet.ru/betting-webapp/internal/features/ledger"
	"jeanbet.ru/betting-webapp/internal/features/users"
)

// Handler — HTTP-обработчики админки.
type Handler struct {
	service       *Service
	usersService  *users.Service
	ledgerService *ledger.Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, usersService *users.Service, ledgerService *ledger.Service) *Handler {
	return &Handler{service: service, usersService: usersService, ledgerService: ledgerService}
}

// AuthMiddleware пропускает только администраторов с активной сессией.
// Вешается на всю админскую группу ПОСЛЕ middleware.RequireUser.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.service.Authorize(c.Request.Context(), middleware.UserID(c)); err != nil {
			api.Fail(c, common.ErrNotAdmin)
			return
		}
		c.Next()
	}
}

// RegisterAuth вешает вход/выход — доступны без активной сессии,
// но требуют RequireUser.
func (h *Handler) RegisterAuth(r gin.IRouter) {
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
}

// Register вешает маршруты, защищённые AuthMiddleware.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/stats", h.stats)
	r.GET("/users", h.listUsers)
	r.POST("/users/:id/balance", h.adjustBalance)
	r.POST("/users/:id/admin", h.setAdmin)
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	session, err := h.service.Login(c.Request.Context(), middleware.UserID(c), req.Password)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"expires_at": session.ExpiresAt})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"logged_out": true})
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, st)
}

func (h *Handler) listUsers(c *gin.Context) {
	list, err := h.usersService.List(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, list)
}

type adjustBalanceRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
	Note  string          `json:"note"`
}

// adjustBalance — ручная корректировка баланса. Кто и зачем — в журнале операций.
func (h *Handler) adjustBalance(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		api.BadRequest(c, "некорректный идентификатор пользователя")
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	newBalance, err := h.ledgerService.AdjustBalance(
		c.Request.Context(), targetID, req.Delta, middleware.UserID(c), req.Note)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"balance": newBalance})
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

func (h *Handler) setAdmin(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		api.BadRequest(c, "некорректный идентификатор пользователя")
		return
	}

	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	if err := h.usersService.SetAdmin(c.Request.Context(), targetID, *req.IsAdmin); err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"user_id": targetID, "is_admin": *req.IsAdmin})
}
