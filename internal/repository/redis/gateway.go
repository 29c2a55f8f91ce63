package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Gateway keeps batch records as plain Redis strings without expiry.
// Staleness is decided by the recovery loader, not by TTLs.
type Gateway struct {
	rdb *redis.Client
}

func NewGateway(rdb *redis.Client) *Gateway {
	return &Gateway{rdb: rdb}
}

func (g *Gateway) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := g.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (g *Gateway) Set(ctx context.Context, key, value string) error {
	return g.rdb.Set(ctx, key, value, 0).Err()
}

func (g *Gateway) Remove(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, key).Err()
}
