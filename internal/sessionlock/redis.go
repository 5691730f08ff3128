package sessionlock

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

const (
	// lockTTL bounds how long a crashed holder can block a session.
	lockTTL = 30 * time.Second

	// acquireRetryInterval is the poll interval while waiting for a held lock.
	acquireRetryInterval = 100 * time.Millisecond

	// acquireTimeout caps how long Acquire waits before reporting the
	// session as busy.
	acquireTimeout = 10 * time.Second

	lockKeyPrefix = "tubenote:session-lock:"
)

// releaseScript deletes the lock only when the stored token still matches,
// so an expired lock reacquired by another holder is never released by the
// first one.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes session turns across process replicas using
// per-session Redis locks.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a RedisLocker on an existing client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the session lock, polling while another holder has it.
// After acquireTimeout the session is reported busy.
func (l *RedisLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()

	deadline := time.Now().Add(acquireTimeout)
	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrSessionBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireRetryInterval):
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			log.Printf("sessionlock: release failed for %s: %v", sessionID, err)
		}
	}
	return release, nil
}
