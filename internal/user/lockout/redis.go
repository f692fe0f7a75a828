package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:lockout:"

// Redis shares lockout state between API instances. Each key is a hash with
// the failure count and the unix time the lock ends.
type Redis struct {
	client *redis.Client
	policy Policy
	now    func() time.Time
}

func NewRedis(client *redis.Client, policy Policy) *Redis {
	return &Redis{client: client, policy: policy, now: time.Now}
}

// WithClock replaces the time source used for lock deadlines.
func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

// Connect accepts either a redis:// URL or a bare host:port.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}

	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}

		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

func (r *Redis) Locked(ctx context.Context, key string) (bool, error) {
	raw, err := r.client.HGet(ctx, keyPrefix+key, "locked_until").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("reading lockout: %w", err)
	}

	until, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, nil
	}

	return r.now().Before(time.Unix(until, 0)), nil
}

func (r *Redis) RecordFailure(ctx context.Context, key string) error {
	if !r.policy.enabled() {
		return nil
	}

	redisKey := keyPrefix + key

	count, err := r.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return fmt.Errorf("recording login failure: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if int(count) >= r.policy.Threshold {
			p.HSet(ctx, redisKey, "locked_until", r.now().Add(r.policy.Window).Unix(), "failed_count", 0)
		}

		p.Expire(ctx, redisKey, r.policy.Window)

		return nil
	})
	if err != nil {
		return fmt.Errorf("updating lockout: %w", err)
	}

	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clearing lockout: %w", err)
	}

	return nil
}
