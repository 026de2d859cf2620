package redis

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Config locates the Redis instance that backs idempotency keys.
// Addr is either host:port or a redis:// (rediss://) URL; a database
// number in the URL path wins over DB.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

func clientOptions(cfg Config) (*redis.Options, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr, DB: cfg.DB}, nil
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if u, err := url.Parse(addr); err == nil && strings.Trim(u.Path, "/") == "" {
		opts.DB = cfg.DB
	}
	return opts, nil
}

// Connect opens a client for cfg and pings it, failing when the server is
// not reachable within cfg.Timeout (5s when unset).
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping %s db=%d", opts.Addr, opts.DB)
	}
	return client, nil
}
