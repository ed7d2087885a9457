package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestMemoryOTPRateLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewOTPRateLimiter(10*time.Minute, 2).(*otpRateLimiter)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if !l.Allow(ctx, "a@campus.edu") || !l.Allow(ctx, "a@campus.edu") {
		t.Fatalf("expected first two requests allowed")
	}
	if l.Allow(ctx, "a@campus.edu") {
		t.Fatalf("expected third request denied")
	}
	if !l.Allow(ctx, "b@campus.edu") {
		t.Fatalf("expected independent key allowed")
	}

	now = now.Add(11 * time.Minute)
	if !l.Allow(ctx, "a@campus.edu") {
		t.Fatalf("expected request allowed after window")
	}
}

func TestRedisOTPRateLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisOTPRateLimiter
		if !l.Allow(ctx, "user@campus.edu") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisOTPRateLimiter{client: &mockRedisEvaler{result: 1}, logger: zap.NewNop(), window: time.Minute, max: 3, prefix: "campus:otp:rl:"}
		if l.Allow(ctx, "   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisOTPRateLimiter{client: mock, logger: zap.NewNop(), window: 10 * time.Minute, max: 3, prefix: "campus:otp:rl:"}
		if !l.Allow(ctx, " Alice@Campus.edu ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "campus:otp:rl:alice@campus.edu" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 600 {
			t.Fatalf("expected TTL seconds=600, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisOTPAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisOTPRateLimiter{client: &mockRedisEvaler{result: 4}, logger: zap.NewNop(), window: time.Minute, max: 3, prefix: "campus:otp:rl:"}
		if l.Allow(ctx, "user@campus.edu") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisOTPRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, logger: zap.NewNop(), window: time.Minute, max: 3, prefix: "campus:otp:rl:"}
		if !l.Allow(ctx, "user@campus.edu") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
