package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferdian3456/virdanengage/internal/config"
	"github.com/ferdian3456/virdanengage/internal/exception"
	"github.com/ferdian3456/virdanengage/internal/observability"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/jackc/pgx/v5/pgxpool"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC

	bootLog := config.NewZap(os.Getenv("LOG_LEVEL"))
	koanf := config.NewKoanf(bootLog)
	zap := config.NewZap(koanf.String("LOG_LEVEL"))

	// Background work (registry sweeper) stops when this is cancelled
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	shutdownTracer, err := observability.Init(appCtx, config.LoadObservabilityConfig(koanf), zap)
	if err != nil {
		zap.Fatal("failed to init observability", zapLog.Error(err))
	}

	fiber := config.NewFiber(koanf, zap)
	rds := config.NewRedisClient(koanf, zap)

	var postgresql *pgxpool.Pool
	if config.StringOr(koanf, "BACKEND_MODE", config.BackendModePostgres) != config.BackendModeRemote {
		config.RunMigrations(koanf, zap)
		postgresql = config.NewPostgresqlPool(koanf, zap)
	}

	// Custom recovery middleware to handle panics with JSON response
	fiber.Use(exception.Recovery(zap))

	// Compression middleware (should be before logging)
	fiber.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	config.Server(appCtx, &config.ServerConfig{
		Router:  fiber,
		DB:      postgresql,
		DBCache: rds,
		Cookie:  config.NewSecureCookie(koanf, zap),
		Log:     zap,
		Config:  koanf,
	})

	APP_PORT := config.StringOr(koanf, "APP_PORT", ":8080")

	zap.Info("Server is running on: " + APP_PORT)

	go func() {
		err := fiber.Listen(APP_PORT)
		if err != nil {
			zap.Fatal("error starting server", zapLog.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	// Flush zap buffered log first then cancel the context for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = fiber.ShutdownWithContext(ctx)
	if err != nil {
		zap.Warn("timeout, forced kill!", zapLog.Error(err))
		_ = zap.Sync()
		os.Exit(1)
	}

	stopApp()

	err = shutdownTracer(ctx)
	if err != nil {
		zap.Warn("failed to flush traces", zapLog.Error(err))
	}

	if postgresql != nil {
		postgresql.Close()
	}
	_ = rds.Close()

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
