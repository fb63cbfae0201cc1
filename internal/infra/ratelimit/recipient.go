package ratelimit

import (
	"context"
	"fmt"
	"time"

	"medinotify/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ notification.RecipientRateLimiter = (*RedisRecipientLimiter)(nil)

const keyPrefix = "medinotify:recipient:"

// RedisRecipientLimiter caps how many notifications one patient can receive
// per sliding window, keyed by canonical phone number. Each send is a sorted
// set member scored by its timestamp; expired members are trimmed on every
// check. This keeps repeated reception-desk "send message" clicks and retried
// reminders from spamming a patient.
type RedisRecipientLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisRecipientLimiter creates a per-recipient limiter allowing maxPerHour
// sends per recipient over a one hour sliding window.
func NewRedisRecipientLimiter(redisAddr, password string, db int, maxPerHour int) *RedisRecipientLimiter {
	return &RedisRecipientLimiter{
		client: redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		}),
		max:    maxPerHour,
		window: time.Hour,
	}
}

// Allow reports whether one more notification may be sent to the recipient,
// and records it when allowed.
func (r *RedisRecipientLimiter) Allow(ctx context.Context, recipient string) (bool, error) {
	key := keyPrefix + recipient
	now := time.Now()
	cutoff := fmt.Sprintf("%d", now.Add(-r.window).UnixNano())

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("checking recipient rate limit: %w", err)
	}

	if countCmd.Val() >= int64(r.max) {
		return false, nil
	}

	// Member must be unique under concurrent sends to the same recipient.
	record := r.client.Pipeline()
	record.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	record.Expire(ctx, key, r.window+time.Minute)
	if _, err := record.Exec(ctx); err != nil {
		return false, fmt.Errorf("recording recipient send: %w", err)
	}

	return true, nil
}

// Close closes the Redis connection.
func (r *RedisRecipientLimiter) Close() error {
	return r.client.Close()
}
