// Package testutil provides shared test helpers: Redis discovery, a fixed clock and
// canned backend payloads.
package testutil

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

const (
	defaultTestRedisAddr = "localhost:6379"
	// defaultTestRedisDB keeps test data away from DB 0, where a developer's gateway stores tokens.
	defaultTestRedisDB = 15
)

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// TestRedisAddr returns TEST_REDIS_ADDR, then REDIS_ADDR, then localhost:6379.
func TestRedisAddr() string {
	for _, key := range []string{"TEST_REDIS_ADDR", "REDIS_ADDR"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return defaultTestRedisAddr
}

// TestRedisDB returns TEST_REDIS_DB when it is a valid index, otherwise 15.
func TestRedisDB() int {
	if v, err := strconv.Atoi(os.Getenv("TEST_REDIS_DB")); err == nil && v >= 0 && v <= 15 {
		return v
	}
	return defaultTestRedisDB
}

// SetupTestRedis returns a client on an emptied test DB. When the test ends the DB is emptied
// again and the client closed, so callers must not close it themselves.
// The test is skipped when Redis does not answer, unless TEST_REQUIRE_REDIS is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := TestRedisAddr()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: TestRedisDB()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if envBool("TEST_REQUIRE_REDIS") {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}

	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer ccancel()
		if err := client.FlushDB(cctx).Err(); err != nil {
			t.Logf("warning: failed to flush test redis db: %v", err)
		}
		_ = client.Close()
	})
	return client
}
