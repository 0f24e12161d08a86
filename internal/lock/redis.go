package lock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions tune the redsync mutex used per key.
type RedisOptions struct {
	// Expiry bounds how long a crashed holder keeps the lock.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultRedisOptions fit short ledger transactions.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker is a distributed Locker backed by redsync.
type RedisLocker struct {
	client *redis.Client
	rs     *redsync.Redsync
	opts   RedisOptions
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker connects to addr and verifies the connection with a PING.
func NewRedisLocker(ctx context.Context, addr string, opts RedisOptions) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisLocker{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
	}, nil
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		// Use a fresh context so a cancelled request still releases the lock.
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			slog.Error("Failed to release lock", "key", key, "unlock_ok", ok, "error", err)
		}
	}()

	return fn(ctx)
}

// Close closes the underlying redis client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
