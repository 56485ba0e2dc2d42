// Package pricing — handlers.go: HTTP-обработчики списка гонщиков
// и коэффициентов. Чтение публично, правка карточек — только админ.
package pricing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jeanbet.ru/betting-webapp/internal/api"
)

// Handler — HTTP-обработчики гонщиков и коэффициентов.
type Handler struct {
	service  *Service
	provider *Provider
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, provider *Provider) *Handler {
	return &Handler{service: service, provider: provider}
}

// Register вешает публичные маршруты.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/racers", h.racers)
	r.GET("/odds", h.odds)
}

// RegisterAdmin вешает админские маршруты управления карточками.
func (h *Handler) RegisterAdmin(r gin.IRouter) {
	r.GET("/racers", h.allRacers)
	r.POST("/racers", h.createRacer)
	r.PATCH("/racers/:id", h.updateRacer)
}

func (h *Handler) racers(c *gin.Context) {
	list, err := h.service.ListRacers(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, list)
}

// odds отдаёт текущий снимок цен: версию и коэффициенты по гонщикам.
func (h *Handler) odds(c *gin.Context) {
	sheet, err := h.provider.CurrentSheet(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, sheet)
}

func (h *Handler) allRacers(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, list)
}

type createRacerRequest struct {
	Name        string           `json:"name" binding:"required"`
	Odds        decimal.Decimal  `json:"odds"`
	Probability *decimal.Decimal `json:"probability"`
	ImageURL    *string          `json:"image_url"`
}

func (h *Handler) createRacer(c *gin.Context) {
	var req createRacerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	rc, err := h.service.CreateRacer(c.Request.Context(), &Racer{
		Name:        req.Name,
		Odds:        req.Odds,
		Probability: req.Probability,
		IsActive:    true,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, rc)
}

func (h *Handler) updateRacer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		api.BadRequest(c, "некорректный идентификатор гонщика")
		return
	}

	var upd RacerUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		api.BadRequest(c, "некорректное тело запроса")
		return
	}

	rc, err := h.service.UpdateRacer(c.Request.Context(), id, upd)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, rc)
}
