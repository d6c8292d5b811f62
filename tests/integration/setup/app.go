package setup

import (
	"context"
	"testing"

	"github.com/ferdian3456/virdanengage/internal/config"
	"github.com/ferdian3456/virdanengage/internal/exception"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const JWTSecret = "test-secret-key-for-jwt-token-generation"

type TestApp struct {
	App     *fiber.App
	DB      *pgxpool.Pool
	DBCache *redis.Client
	stop    context.CancelFunc
}

func (testApp *TestApp) Close() {
	testApp.stop()
	testApp.DB.Close()
	_ = testApp.DBCache.Close()
}

func SetupTestApp(t *testing.T, pgURL, redisURL string) *TestApp {
	t.Log("Setting up test application...")

	ctx, stop := context.WithCancel(context.Background())

	// 1. Create test config with test infrastructure values
	testConfig := koanf.New(".")
	_ = testConfig.Set("POSTGRES_URL", pgURL)
	_ = testConfig.Set("REDIS_URL", redisURL)
	_ = testConfig.Set("JWT_SECRET_KEY", JWTSecret)
	_ = testConfig.Set("BACKEND_MODE", config.BackendModePostgres)
	_ = testConfig.Set("RATE_LIMIT_DISABLED", true)
	_ = testConfig.Set("PAGE_CACHE_TTL", "1m")

	// 2. Connect to PostgreSQL
	t.Log("Connecting to test PostgreSQL...")
	dbPool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		t.Fatalf("failed to connect to test db: %v", err)
	}

	// 3. Connect to Redis
	t.Log("Connecting to test Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
		DB:   0, // Use default DB for testing
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	// 4. Setup logger (use development config for test)
	zapLogger := zap.NewExample()

	// 5. Setup Fiber app
	fiberApp := config.NewFiber(testConfig, zapLogger)
	fiberApp.Use(exception.Recovery(zapLogger))

	// 6. Wire everything the way main does
	config.Server(ctx, &config.ServerConfig{
		Router:  fiberApp,
		DB:      dbPool,
		DBCache: redisClient,
		Cookie:  securecookie.New(securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32)),
		Log:     zapLogger,
		Config:  testConfig,
	})

	t.Log("Test application setup completed successfully")

	return &TestApp{
		App:     fiberApp,
		DB:      dbPool,
		DBCache: redisClient,
		stop:    stop,
	}
}
