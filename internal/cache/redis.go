package cache

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis connection, or nil when Redis is unreachable:
// the market cache is an optimization, not a dependency.
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to the given address ("host:port" or a redis:// URL).
// On failure the process continues without a cache.
func InitRedis(ctx context.Context, addr string) {
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Printf("Warning: failed to parse REDIS_URL %q, cache disabled: %v", addr, err)
			Client = nil
			return
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("Warning: Redis unreachable at %s, cache disabled: %v", addr, err)
		Client = nil
		return
	}

	Client = client
	log.Println("Connected to Redis")
}
