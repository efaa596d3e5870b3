package cache

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		// These tests need Docker; run without -short to include them.
		os.Exit(0)
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	opts, err := redis.ParseURL(connStr)
	if err != nil {
		log.Fatalf("failed to parse connection string: %v", err)
	}
	testClient = redis.NewClient(opts)

	code := m.Run()

	testClient.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}

	os.Exit(code)
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	t.Cleanup(func() {
		if err := testClient.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush: %v", err)
		}
	})

	return NewCache(testClient, instrument.NewNoop())
}

func TestAcquireCooldown(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	acquired, err := c.AcquireCooldown(ctx, "email:a@b.co", time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !acquired {
		t.Fatal("first acquire must win")
	}

	acquired, err = c.AcquireCooldown(ctx, "email:a@b.co", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if acquired {
		t.Error("second acquire inside the window must lose")
	}

	// A different key is an independent slot.
	acquired, err = c.AcquireCooldown(ctx, "phone:+6281234567890", time.Minute)
	if err != nil {
		t.Fatalf("other key acquire: %v", err)
	}
	if !acquired {
		t.Error("unrelated key must not share the cooldown")
	}
}

func TestAcquireCooldownExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.AcquireCooldown(ctx, "email:a@b.co", 100*time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	acquired, err := c.AcquireCooldown(ctx, "email:a@b.co", time.Minute)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if !acquired {
		t.Error("cooldown must free the slot after its ttl")
	}
}

func TestIncrementFailure(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrementFailure(ctx, "42", time.Minute)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("counter = %d, want %d", got, want)
		}
	}

	ttl, err := testClient.TTL(ctx, "otp:failures:42").Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("counter ttl = %v, want within the window", ttl)
	}
}
