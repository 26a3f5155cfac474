package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared across instances:
// INCR the window key, set the expiry on first hit, compare to the limit.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= l.limit, nil
}

// MemoryLimiter is a per-visitor token bucket used when no Redis address
// is configured. Stale visitors are evicted periodically.
type MemoryLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(rps float64, burst int, ttl time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
	}

	go ml.cleanup()

	return ml
}

func (ml *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ml.mu.Lock()
		for key, v := range ml.visitors {
			if time.Since(v.lastSeen) > ml.ttl {
				delete(ml.visitors, key)
			}
		}
		ml.mu.Unlock()
	}
}

func (ml *MemoryLimiter) getVisitor(key string) *rate.Limiter {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	v, exists := ml.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(ml.rate, ml.burst)
		ml.visitors[key] = &visitor{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return ml.getVisitor(key).Allow(), nil
}
