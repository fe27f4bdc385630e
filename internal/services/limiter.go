package services

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// Limiter backs the claim rate limits and the same-IP guard.
type Limiter interface {
	// Allow counts one hit against key in a fixed window and reports
	// whether the hit is within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	// Acquire sets key to owner if it is not held and returns the current
	// holder. acquired is true only when this call set the key.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (acquired bool, holder string, err error)
	Release(ctx context.Context, key string) error
}

type redisLimiter struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRedisLimiter(log *logger.Logger, rdb *goredis.Client) Limiter {
	return &redisLimiter{
		log: log.With("service", "RedisLimiter"),
		rdb: rdb,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			l.log.Warn("rate limit expire failed", "key", key, "error", err)
		}
	}
	return n <= int64(limit), nil
}

func (l *redisLimiter) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, string, error) {
	// The key can expire between SETNX and GET; one more round settles it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, owner, nil
		}
		holder, err := l.rdb.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return false, "", err
		}
		return false, holder, nil
	}
	return false, "", nil
}

func (l *redisLimiter) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}

const memorySweepInterval = time.Minute

// memoryLimiter is the single-process stand-in used when no Redis is
// configured. State is lost on restart and not shared between replicas.
// Expired entries are swept at most once per memorySweepInterval.
type memoryLimiter struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]memoryEntry
	nextSweep time.Time
}

type memoryEntry struct {
	count   int
	holder  string
	expires time.Time
}

func NewMemoryLimiter() Limiter {
	return newMemoryLimiter(time.Now)
}

func newMemoryLimiter(now func() time.Time) *memoryLimiter {
	return &memoryLimiter{now: now, entries: map[string]memoryEntry{}}
}

// tick returns the current time and drops expired entries when a sweep is
// due. Callers hold mu.
func (l *memoryLimiter) tick() time.Time {
	now := l.now()
	if now.Before(l.nextSweep) {
		return now
	}
	for k, e := range l.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(l.entries, k)
		}
	}
	l.nextSweep = now.Add(memorySweepInterval)
	return now
}

func (l *memoryLimiter) live(key string, now time.Time) (memoryEntry, bool) {
	e, ok := l.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expires.IsZero() && !now.Before(e.expires) {
		delete(l.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (l *memoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.tick()
	e, ok := l.live(key, now)
	if !ok {
		e = memoryEntry{expires: now.Add(window)}
	}
	e.count++
	l.entries[key] = e
	return e.count <= limit, nil
}

func (l *memoryLimiter) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.tick()
	if e, ok := l.live(key, now); ok {
		return false, e.holder, nil
	}
	e := memoryEntry{count: 1, holder: owner}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	l.entries[key] = e
	return true, owner, nil
}

func (l *memoryLimiter) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}
