package database

import (
	"context"
	"fmt"

	"task-manager/configs"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns a client for the configured Redis, checked with a ping.
func ConnectRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return client, nil
}
