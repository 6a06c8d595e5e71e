package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lawgraph-core/server/internal/agent/model"
	errx "github.com/lawgraph-core/server/internal/core/error"
	logx "github.com/lawgraph-core/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisStateRepository stores one JSON-encoded ChatState snapshot per session.
// A snapshot is written with a single SET, so concurrent readers observe
// either the previous or the new state, never a partial one.
type RedisStateRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStateRepository(rdb redis.Cmdable, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisStateRepository) stateKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:state", sessionID)
}

func (r *RedisStateRepository) Load(ctx context.Context, sessionID string) (*model.ChatState, error) {
	key := r.stateKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return model.NewChatState(), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ChatState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal conversation state")
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) Save(ctx context.Context, sessionID string, state *model.ChatState) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal conversation state: %w", err)
	}

	key := r.stateKey(sessionID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write conversation state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStateRepository) Delete(ctx context.Context, sessionID string) error {
	key := r.stateKey(sessionID)

	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation state from redis")
		return errx.WrapRedis(err)
	}
	if n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

var _ model.StateRepository = (*RedisStateRepository)(nil)
