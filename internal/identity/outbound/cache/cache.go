package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	cooldownPrefix = "otp:cooldown:"
	failurePrefix  = "otp:failures:"
)

// Cache backs the issue cooldown and the invalid-code counter with Redis.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

// AcquireCooldown returns true when no cooldown was active for the key and one
// was set; false means a recent issue already holds the slot.
func (c *Cache) AcquireCooldown(ctx context.Context, key string, ttl time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "AcquireCooldown")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return c.client.SetNX(ctx, cooldownPrefix+key, "1", ttl).Result()
}

// IncrementFailure counts consecutive invalid-code attempts per key; the
// counter expires with the window so stale attempts roll off.
func (c *Cache) IncrementFailure(ctx context.Context, key string, window time.Duration) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrementFailure")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	count, err := c.client.Incr(ctx, failurePrefix+key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := c.client.Expire(ctx, failurePrefix+key, window).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}
