package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis dials the redis instance holding OAuth state nonces. An empty
// URL falls back to a local instance.
func ConnectRedis(url string) error {
	opts := &redis.Options{Addr: "localhost:6379"}

	if url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return err
		}
		opts = parsed
	}

	RDB = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return RDB.Ping(ctx).Err()
}
