// Package pricing — cache.go: кэш снимка цен в Redis.
// Кэш опционален: без Redis провайдер ходит напрямую в Postgres.
package pricing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const sheetKey = "pricing:sheet"

// Cache хранит сериализованный PriceSheet с коротким TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache создаёт кэш. rdb может быть nil — тогда кэш выключен.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// ConnectRedis подключается к Redis и проверяет связь.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// GetSheet возвращает снимок цен из кэша; (nil, false) при промахе.
// Ошибки Redis не фатальны — при проблемах просто идём в БД.
func (c *Cache) GetSheet(ctx context.Context) (*PriceSheet, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, sheetKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.WithError(err).Warn("Ошибка чтения кэша цен")
		return nil, false
	}
	var sheet PriceSheet
	if err := json.Unmarshal(b, &sheet); err != nil {
		log.WithError(err).Warn("Битый снимок цен в кэше")
		return nil, false
	}
	return &sheet, true
}

// SetSheet сохраняет снимок цен в кэш.
func (c *Cache) SetSheet(ctx context.Context, sheet *PriceSheet) {
	if c == nil || c.rdb == nil {
		return
	}
	b, err := json.Marshal(sheet)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, sheetKey, b, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Ошибка записи кэша цен")
	}
}

// Invalidate сбрасывает кэш. Вызывается при изменении гонщиков админом.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, sheetKey).Err(); err != nil {
		log.WithError(err).Warn("Ошибка сброса кэша цен")
	}
}
