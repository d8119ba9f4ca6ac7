package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// WindowCounter is a fixed-window hit counter shared by every API replica.
type WindowCounter struct {
	redisdb *redis.Client
	prefix  string
	window  time.Duration
}

func (c *Client) WindowCounter(prefix string, window time.Duration) *WindowCounter {
	return &WindowCounter{redisdb: c.redisdb, prefix: prefix, window: window}
}

// Hit increments key's counter and returns the new count and time left in the window.
// A key left without a TTL (an EXPIRE lost to a crash or error) gets one on
// the next hit, so a window can never outlive its length by more than a window.
func (w *WindowCounter) Hit(ctx context.Context, key string) (int, time.Duration, error) {
	fullKey := w.prefix + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)

	_, err := w.redisdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pttl = pipe.PTTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	count := incr.Val()
	remaining := pttl.Val()

	// first hit opens the window; a negative ttl means the key has none
	if count == 1 || remaining < 0 {
		if err := w.redisdb.Expire(ctx, fullKey, w.window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = w.window
	}

	return int(count), remaining, nil
}
