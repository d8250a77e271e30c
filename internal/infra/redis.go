package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the client backing the job queues and the dashboard
// cache. A failed ping aborts startup rather than surfacing later as
// stuck recalc jobs.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
