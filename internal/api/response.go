// Package api задаёт единый формат HTTP-ответов: конверт ответа
// и маппинг ошибок на HTTP-статусы. Роутер собирается в internal/app,
// чтобы обработчики фич могли использовать конверт без циклов импорта.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
)

// Response — единый конверт всех ответов API.
// Клиент различает ошибки по стабильному коду, не по тексту.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError — тело ошибки в конверте.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK отправляет успешный ответ.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created отправляет ответ о созданном ресурсе.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Fail отправляет ошибку с кодом и статусом по её типу.
// Внутренние ошибки логируются, но наружу уходят обезличенными.
func Fail(c *gin.Context, err error) {
	code := common.ErrorCode(err)
	status := statusFor(code)

	msg := err.Error()
	if code == common.CodeInternal {
		log.WithError(err).WithField("path", c.FullPath()).Error("Внутренняя ошибка")
		msg = "внутренняя ошибка сервиса"
	}

	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// BadRequest — ошибка разбора запроса (кривой JSON, не те типы).
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &APIError{Code: common.CodeValidation, Message: message},
	})
}

func statusFor(code string) int {
	switch code {
	case common.CodeValidation:
		return http.StatusBadRequest
	case common.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeAlreadySettled, common.CodeDuplicatePayment:
		return http.StatusConflict
	case common.CodeNotAdmin:
		return http.StatusForbidden
	case common.CodeWrongPassword:
		return http.StatusUnauthorized
	case common.CodeTooManyAttempts, common.CodeRetryLater:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
