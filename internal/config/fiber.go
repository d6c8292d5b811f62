package config

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/exception"
	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// NewFiber builds the app with sonic as the JSON codec. Request bodies here
// are comments and small mount payloads, so the body limit stays low.
func NewFiber(config *koanf.Koanf, log *zap.Logger) *fiber.App {
	// A blocking toggle waits on the backend, so writes get the backend
	// timeout plus headroom.
	writeTimeout := DurationOr(config, "BACKEND_TIMEOUT", 10*time.Second) + 5*time.Second

	app := fiber.New(fiber.Config{
		Prefork:               false,
		AppName:               StringOr(config, "APP_NAME", "virdanengage"),
		BodyLimit:             IntOr(config, "BODY_LIMIT", 256*1024),
		ReadBufferSize:        4096,
		WriteBufferSize:       4096,
		Concurrency:           256 * 1024,
		IdleTimeout:           DurationOr(config, "HTTP_IDLE_TIMEOUT", 30*time.Second),
		ReadTimeout:           DurationOr(config, "HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          exception.ErrorHandler(log),
	})

	return app
}
