package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock re-acquired by someone else is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// renewScript pushes the expiry of a lock we still hold another ARGV[2] ms.
const renewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

// redisClient is the part of *redis.Client the locker needs.
type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisLocker is a Locker shared by every process pointing at the same Redis.
// Locks expire after ttl so a crashed holder cannot block an id forever.
// While a lock is held its lease is renewed every ttl/3; a holder that
// stalls longer than ttl (GC pause, lost connection) can still lose it.
type RedisLocker struct {
	client redisClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    logging.Logger
}

func NewRedisLocker(client redisClient, ttl time.Duration, log logging.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: "cinepos:lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		log:    log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	stop := make(chan struct{})
	go l.keepAlive(key, redisKey, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			// the caller's ctx may already be cancelled; release regardless
			err := l.client.Eval(context.Background(), releaseScript, []string{redisKey}, token).Err()
			if err != nil {
				l.log.Warn(ctx, "lock release failed", "key", key, "error", err)
			}
		})
	}, nil
}

// keepAlive renews the lease on redisKey until stop is closed or the lock
// turns out to belong to someone else.
func (l *RedisLocker) keepAlive(key, redisKey, token string, stop <-chan struct{}) {
	every := l.ttl / 3
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		n, err := l.client.Eval(ctx, renewScript, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
		if err != nil {
			l.log.Warn(ctx, "lock renewal failed", "key", key, "error", err)
			continue
		}
		if n == 0 {
			l.log.Error(ctx, "lock lost before release", "key", key)
			return
		}
	}
}
