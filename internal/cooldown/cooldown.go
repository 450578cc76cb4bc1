// Package cooldown ограничивает частоту команд одного пользователя.
package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter разрешает не больше одного действия на ключ за окно.
// Если действие запрещено, возвращает оставшееся время ожидания.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

// RedisClient - часть *redis.Client, нужная лимитеру
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter хранит окна в Redis, поэтому они общие для всех реплик бота
type RedisLimiter struct {
	rdb    RedisClient
	prefix string
}

func NewRedisLimiter(rdb RedisClient) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "cooldown:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	const op = "cooldown.RedisLimiter.Allow"

	k := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, k, 1, window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		return true, 0, nil
	}

	left, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	// ключ без TTL или уже истёк между запросами
	if left <= 0 {
		left = window
	}
	return false, left, nil
}

// LocalLimiter держит окна в памяти процесса
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(window), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	r := lim.Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d, nil
	}
	return true, 0, nil
}

// Key собирает ключ окна из команды и пользователя
func Key(command, userID string) string {
	return command + ":" + userID
}
