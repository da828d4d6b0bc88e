// Package integration spins up real backing services with testcontainers.
// These tests need a working Docker socket and skip themselves otherwise.
package integration

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type Env struct {
	Redis  *tcredis.RedisContainer
	Client *goredis.Client
	Cancel context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	redisC, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		cancel()
		return nil, err
	}

	url, err := redisC.ConnectionString(ctx)
	if err != nil {
		cancel()
		_ = redisC.Terminate(ctx)
		return nil, err
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		cancel()
		_ = redisC.Terminate(ctx)
		return nil, err
	}

	return &Env{
		Redis:  redisC,
		Client: goredis.NewClient(opts),
		Cancel: cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Client.Close()
	_ = e.Redis.Terminate(ctx)
}
