package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"news-miniapp-gateway/internal/platform/redis"
)

var (
	// ErrCacheMiss возвращается, когда ключа нет в кэше
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheWrite: значение получено, но не сохранено в кэш
	ErrCacheWrite = errors.New("cache write failed")
)

type CacheService struct {
	redisClient redis.RedisClient
}

func NewCacheService(redisClient redis.RedisClient) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// Get получает значение из кэша
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set сохраняет значение в кэш
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

// Delete удаляет значение из кэша
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}

// Exists проверяет существование ключа
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// GetOrSet получает значение из кэша или вычисляет и сохраняет новое.
// Если запись в кэш не удалась, dest все равно заполнен, а ошибка оборачивает ErrCacheWrite.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}
	if err := c.redisClient.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCacheWrite, key, err)
	}
	return nil
}

// Lock ставит короткую блокировку через SETNX. false означает, что блокировку держит кто-то другой.
func (c *CacheService) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.redisClient.SetNX(ctx, key, "1", ttl).Result()
}

// Unlock снимает блокировку
func (c *CacheService) Unlock(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}

// Ping проверяет соединение с Redis
func (c *CacheService) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

// SessionKey возвращает ключ сохраненной личности для сессии
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// NewsFeedKey возвращает ключ ленты новостей категории
func NewsFeedKey(category string) string {
	return fmt.Sprintf("news:%s", category)
}

// RegistrationLockKey возвращает ключ блокировки регистрации пользователя
func RegistrationLockKey(tgID int64) string {
	return fmt.Sprintf("register:lock:%d", tgID)
}
