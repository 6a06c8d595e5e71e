package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lawgraph-core/server/internal/agent/model"
	"github.com/redis/go-redis/v9"
)

// unlockScript releases a lock only when the stored token still matches, so a
// lock that expired and was re-acquired by another turn is never deleted.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// RedisSessionLocker serializes turns per session with SET NX PX. A second
// turn for the same session polls until the first completes or its request
// context expires.
type RedisSessionLocker struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisSessionLocker(rdb redis.Cmdable) *RedisSessionLocker {
	return &RedisSessionLocker{rdb: rdb, prefix: "conversation:lock:"}
}

func (l *RedisSessionLocker) Lock(ctx context.Context, sessionID string, ttl time.Duration) (model.UnlockFunc, error) {
	lockKey := l.prefix + sessionID
	token := uuid.NewString()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.rdb.Eval(ctx, unlockScript, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ model.SessionLocker = (*RedisSessionLocker)(nil)
