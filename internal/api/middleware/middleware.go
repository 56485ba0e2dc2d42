// Package middleware — общие middleware HTTP-сервера: логирование,
// восстановление после паник, идентификация пользователя и rate limiting.
//
// Идентификация упрощённая: клиент (Telegram WebApp) передаёт свой ID
// в заголовке X-Telegram-Id. Криптографическая проверка initData
// выполняется на обратном прокси и сюда не входит.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/common"
)

// CtxUserID — ключ gin-контекста с ID пользователя.
const CtxUserID = "user_id"

// Logger логирует каждый запрос с длительностью и статусом.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Запрос завершился ошибкой")
		} else {
			entry.Debug("Запрос обработан")
		}
	}
}

// Recovery перехватывает паники обработчиков и возвращает 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
				}).Error("Паника в обработчике")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": common.CodeInternal, "message": "внутренняя ошибка сервиса"},
				})
			}
		}()
		c.Next()
	}
}

// RequireUser извлекает ID пользователя из заголовка X-Telegram-Id
// и кладёт его в контекст. Без заголовка запрос отклоняется.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Telegram-Id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": common.CodeValidation, "message": "не указан идентификатор пользователя"},
			})
			return
		}
		c.Set(CtxUserID, id)
		c.Next()
	}
}

// UserID возвращает ID пользователя, положенный RequireUser.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// RateLimit — скользящее окно запросов на пользователя (по ID, иначе по IP).
// Счётчики держим в памяти: сервис работает в один процесс.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	type bucket struct {
		times []time.Time
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)

	// Фоновая чистка, чтобы карта не росла бесконечно
	go func() {
		for range time.Tick(window * 2) {
			mu.Lock()
			cutoff := time.Now().Add(-window)
			for key, b := range buckets {
				if len(b.times) == 0 || b.times[len(b.times)-1].Before(cutoff) {
					delete(buckets, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		key := c.GetHeader("X-Telegram-Id")
		if key == "" {
			key = c.ClientIP()
		}

		now := time.Now()
		cutoff := now.Add(-window)

		mu.Lock()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		// Выкидываем запросы, вышедшие из окна
		i := 0
		for ; i < len(b.times); i++ {
			if b.times[i].After(cutoff) {
				break
			}
		}
		b.times = b.times[i:]

		if len(b.times) >= maxRequests {
			mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": common.CodeRetryLater, "message": "слишком много запросов"},
			})
			return
		}
		b.times = append(b.times, now)
		mu.Unlock()

		c.Next()
	}
}
