package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"moodmusic/config"
)

const checkKey = "moodmusic:healthcheck"

// Connect opens a Redis client and verifies it with a PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to Redis at %s", cfg.Addr())
	}
	return client, nil
}

// Check runs a set/get/delete round trip against client.
func Check(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errors.New("redis client not initialized")
	}

	const want = "ok"
	if err := client.Set(ctx, checkKey, want, time.Minute).Err(); err != nil {
		return errors.Wrap(err, "failed to set Redis key")
	}

	got, err := client.Get(ctx, checkKey).Result()
	if err != nil {
		return errors.Wrap(err, "failed to get Redis key")
	}
	if got != want {
		return errors.Newf("unexpected value from Redis: got %s", got)
	}

	if err := client.Del(ctx, checkKey).Err(); err != nil {
		return errors.Wrap(err, "failed to delete Redis key")
	}
	return nil
}
