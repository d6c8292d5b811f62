package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:15-alpine"
	redisImage    = "redis:7-alpine"
)

// TestInfra is the postgres backend plus the redis that holds view markers
// and cached comment pages. Containers are terminated by t.Cleanup.
type TestInfra struct {
	PgURL    string
	RedisURL string
}

func startPostgres(ctx context.Context, t *testing.T) (string, error) {
	t.Log("Starting PostgreSQL container...")

	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("virdan_engage_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		return "", fmt.Errorf("failed to start postgres: %w", err)
	}

	pgURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	t.Logf("PostgreSQL started at: %s", pgURL)
	return pgURL, nil
}

func startRedis(ctx context.Context, t *testing.T) (string, error) {
	t.Log("Starting Redis container...")

	container, err := redis.Run(ctx,
		redisImage,
		testcontainers.WithWaitStrategy(wait.ForLog("Ready to accept connections")),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		return "", fmt.Errorf("failed to start redis: %w", err)
	}

	// go-redis wants host:port, not the redis:// form
	redisURL, err := container.Endpoint(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get redis endpoint: %w", err)
	}

	t.Logf("Redis started at: %s", redisURL)
	return redisURL, nil
}

func StartInfra(ctx context.Context, t *testing.T) (*TestInfra, error) {
	t.Log("Starting test infrastructure...")

	pgURL, err := startPostgres(ctx, t)
	if err != nil {
		return nil, err
	}

	redisURL, err := startRedis(ctx, t)
	if err != nil {
		return nil, err
	}

	return &TestInfra{PgURL: pgURL, RedisURL: redisURL}, nil
}
