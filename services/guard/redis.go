package guardsvc

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/attendance"
)

// redisGuard deduplicates check-in submissions across API instances with
// SETNX + TTL.
type redisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ attendance.Guard = (*redisGuard)(nil)

func NewRedisGuard(conf *core.Config, ttl time.Duration) *redisGuard {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return &redisGuard{client: client, ttl: ttl}
}

func (g *redisGuard) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, "checkkid:guard:"+key, 1, g.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "reserving dedup key")
	}
	return ok, nil
}

func (g *redisGuard) Close() error {
	return g.client.Close()
}
