//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedis_Integration_SessionsShareRecord(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	key := Key{Namespace: "integration"}

	first := NewRedis(client, key, time.Hour)
	if err := first.Save(ctx, NewRecord(sampleEvents(), time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A second session with its own store instance sees the first session's log.
	second := NewRedis(client, key, time.Hour)
	rec, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rec.Events) != 2 {
		t.Errorf("len(Events) = %d, want 2", len(rec.Events))
	}
}

func TestRedis_Integration_RecordExpires(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	s := NewRedis(client, Key{Namespace: "expiry"}, time.Second)

	if err := s.Save(ctx, NewRecord(sampleEvents(), time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := s.Load(ctx); err != ErrNoRecord {
		t.Errorf("Load() after TTL error = %v, want ErrNoRecord", err)
	}
}
