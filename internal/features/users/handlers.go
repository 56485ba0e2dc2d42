// Package users — handlers.go: HTTP-обработчики авторизации WebApp.
package users

import (
	"github.com/gin-gonic/gin"

	"jeanbet.ru/betting-webapp/internal/api"
	"jeanbet.ru/betting-webapp/internal/api/middleware"
)

// Handler — HTTP-обработчики пользователей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register вешает маршруты на группу, защищённую RequireUser.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/auth", h.auth)
	r.GET("/me", h.me)
}

type authRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// auth регистрирует пользователя при первом входе из WebApp
// (или обновляет имя при повторном).
func (h *Handler) auth(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	u, err := h.service.Register(c.Request.Context(), middleware.UserID(c), req.Username, req.FirstName)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, u)
}

// me возвращает текущего пользователя с балансом и оборотами.
func (h *Handler) me(c *gin.Context) {
	u, balance, err := h.service.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"user": u, "balance": balance})
}
