package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another writer holds the document lock.
var ErrLockHeld = errors.New("document lock held")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DocumentLockKey builds redis keys for single-writer document sections.
func DocumentLockKey(entity string, id int64) string {
	return fmt.Sprintf("catering:%s:%d:lock", entity, id)
}

// DocumentLocker hands out short lived redis locks keyed per document.
type DocumentLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentLocker constructs a locker. A nil client yields a no-op locker.
func NewDocumentLocker(client *redis.Client, ttl time.Duration) *DocumentLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &DocumentLocker{client: client, ttl: ttl}
}

// Acquire takes the lock for entity/id and returns its release func.
func (l *DocumentLocker) Acquire(ctx context.Context, entity string, id int64) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := DocumentLockKey(entity, id)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("shared: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
	}, nil
}
