package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lgdark7/timetable/pkg/config"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
)

// NewRedis connects the timetable view cache. Callers treat a failure as "run without cache".
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         Addr(cfg),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", Addr(cfg), err)
	}

	return client, nil
}

// Addr joins host and port, defaulting to the local Redis port.
func Addr(cfg config.RedisConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
