package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisSendLimiter counts deliveries per phone in a fixed window. Reused
// codes count too, since each one is another outbound message.
type RedisSendLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

var _ domain.SendLimiter = (*RedisSendLimiter)(nil)

func NewRedisSendLimiter(client *redis.Client, window time.Duration, max int) *RedisSendLimiter {
	return &RedisSendLimiter{client: client, window: window, max: max}
}

// Allow increments the counter for phone and reports whether it is still
// within the limit.
func (l *RedisSendLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("otp:send:%s", phone)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("send limiter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("send limiter: %w", err)
		}
	}
	return n <= int64(l.max), nil
}
