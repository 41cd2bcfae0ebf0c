package state

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth_state:"

// takeIfMatchesScript deletes the key only when its value equals the
// candidate state. Running server-side keeps the compare-and-delete atomic
// across gateway replicas. A mismatch still deletes the pending state so a
// forged callback burns the login attempt instead of leaving it retryable.
var takeIfMatchesScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if stored == false then
	return 0
end
redis.call("DEL", KEYS[1])
if stored == ARGV[1] then
	return 1
end
return 0
`)

// RedisStore is a Store backed by Redis, for multi-replica deployments
// where the callback may land on a different instance than the login.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL overrides the default pending-login TTL.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore creates a Store on top of an existing Redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the state for a session with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, sessionID, state string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, state, s.ttl).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// TakeIfMatches runs the compare-and-delete script against Redis.
func (s *RedisStore) TakeIfMatches(ctx context.Context, sessionID, state string) (bool, error) {
	res, err := takeIfMatchesScript.Run(ctx, s.client, []string{redisKeyPrefix + sessionID}, state).Int()
	if err != nil {
		return false, errors.Join(ErrStoreFailed, err)
	}
	return res == 1, nil
}
