package remotecheck

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

// SetMembership is the subset of a Redis client used by RedisSet.
type SetMembership interface {
	SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd
}

// RedisSet checks values for membership in a Redis set.
type RedisSet struct {
	client SetMembership
	key    string
	negate bool
}

// RedisSetOption configures a RedisSet.
type RedisSetOption func(*RedisSet)

// Negate makes membership a rejection.
func Negate() RedisSetOption {
	return func(s *RedisSet) { s.negate = true }
}

// NewRedisSet returns a checker for the set stored at key.
func NewRedisSet(client SetMembership, key string, opts ...RedisSetOption) *RedisSet {
	s := &RedisSet{client: client, key: key}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements validator.RemoteChecker.
func (s *RedisSet) Check(ctx context.Context, value any) (bool, error) {
	member, err := s.client.SIsMember(ctx, s.key, fmt.Sprint(value)).Result()
	if err != nil {
		return false, &validator.TransportError{Op: "remotecheck.redis", Err: err}
	}
	return member != s.negate, nil
}
