package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xivdye/market-client/internal/testutil"
	"github.com/xivdye/market-client/pkg/cache"
	"github.com/xivdye/market-client/pkg/client"
	"github.com/xivdye/market-client/pkg/storage"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func TestRedisStore_Contract(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := storage.NewRedisStore(redisClient)

	// Round trip.
	if err := store.Set(ctx, "a", []byte("alpha")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	value, ok, err := store.Get(ctx, "a")
	if err != nil || !ok || string(value) != "alpha" {
		t.Fatalf("Get = (%q, %v, %v), want (alpha, true, nil)", value, ok, err)
	}

	// Absence is not an error.
	_, ok, err = store.Get(ctx, "missing")
	if err != nil || ok {
		t.Errorf("Get(missing) = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	// Keys are namespaced and unprefixed on return.
	if err := store.Set(ctx, "b", []byte("beta")); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys error = %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys = %v, want 2 entries", keys)
	}

	// Delete and Clear.
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error = %v", err)
	}
	keys, _ = store.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("Keys after Clear = %v, want empty", keys)
	}
}

func TestRedisStore_TTLHintExpiresEntries(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := storage.NewRedisStore(redisClient)
	store.TTLHint = time.Second

	if err := store.Set(ctx, "ephemeral", []byte("gone soon")); err != nil {
		t.Fatalf("Set error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	_, ok, err := store.Get(ctx, "ephemeral")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if ok {
		t.Error("entry still present after server-side TTL")
	}
}

// TestClientWithRedisBackend runs the full fetch flow against a Redis-backed
// cache: fetch, cache write, then a second lookup served without network.
func TestClientWithRedisBackend(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMarket()
	defer mock.Close()
	mock.SetAggregatedResponse("Crystal", "1001",
		testutil.NewPriceResponse(testutil.AggregatedResult(1001, 420)))

	store := storage.NewRedisStore(redisClient)
	cfg := client.DefaultConfig(store)
	cfg.BaseURL = mock.URL()
	cfg.MinRequestSpacing = 0
	cfg.RetryDelay = 5 * time.Millisecond

	marketClient, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	ctx := context.Background()

	record := marketClient.GetPrice(ctx, 1001, "Crystal")
	if record == nil || record.CurrentMinPrice != 420 {
		t.Fatalf("GetPrice() = %+v, want price 420", record)
	}

	// The entry is in Redis under the deterministic cache key.
	key := cache.Key{ItemID: 1001, Scope: "Crystal"}
	if _, ok, _ := store.Get(ctx, key.String()); !ok {
		t.Error("cache entry missing from Redis after fetch")
	}

	// Second lookup is a cache hit.
	if marketClient.GetPrice(ctx, 1001, "Crystal") == nil {
		t.Fatal("second GetPrice() = nil")
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1 (second lookup served from Redis)", got)
	}
}
