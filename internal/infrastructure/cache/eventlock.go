package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tollgate/internal/shared/logger"
)

const (
	eventLockKeyPrefix = "tollgate:webhook_lock:"
	// DefaultEventLockTTL bounds how long a crashed instance can block
	// redeliveries of the same event.
	DefaultEventLockTTL = 2 * time.Minute
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EventLock serialises processing of one provider event across instances.
type EventLock struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewEventLock(client *redis.Client, ttl time.Duration, logger logger.Interface) *EventLock {
	if ttl <= 0 {
		ttl = DefaultEventLockTTL
	}
	return &EventLock{client: client, ttl: ttl, logger: logger}
}

func (l *EventLock) buildKey(eventID string) string {
	return eventLockKeyPrefix + eventID
}

// Acquire uses SETNX with a TTL. release is nil when acquired is false.
func (l *EventLock) Acquire(ctx context.Context, eventID string) (func(), bool, error) {
	key := l.buildKey(eventID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire event lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warnw("failed to release event lock", "event_id", eventID, "error", err)
		}
	}
	return release, true, nil
}
