package idgen

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces the counter keys.
const DefaultRedisPrefix = "exercise_tracker:seq"

// Redis allocates identifiers with INCR so several processes sharing one
// document store draw from the same sequences.
type Redis struct {
	client redis.Cmdable
	prefix string
}

var _ Allocator = (*Redis)(nil)

// NewRedis returns an allocator over client. An empty prefix uses DefaultRedisPrefix.
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Next increments and returns the counter for kind.
func (r *Redis) Next(ctx context.Context, kind Kind) (string, error) {
	n, err := r.client.Incr(ctx, r.key(kind)).Result()
	if err != nil {
		return "", fmt.Errorf("incr %s sequence: %w", kind, err)
	}
	return strconv.FormatInt(n, 10), nil
}

func (r *Redis) key(kind Kind) string {
	return r.prefix + ":" + string(kind)
}
