package http

import (
	"context"
	"time"

	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type HealthController struct {
	DB      *pgxpool.Pool
	DBCache *redis.Client
	Log     *zap.Logger
}

func NewHealthController(db *pgxpool.Pool, dbCache *redis.Client, zap *zap.Logger) *HealthController {
	return &HealthController{
		DB:      db,
		DBCache: dbCache,
		Log:     zap,
	}
}

// Health reports the dependencies this instance was started with. Postgres
// is absent when engagement data comes from a remote backend.
func (controller *HealthController) Health(ctx *fiber.Ctx) error {
	checkCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	response := model.HealthResponse{Status: "ok"}

	if controller.DB != nil {
		response.Postgres = "ok"
		err := controller.DB.Ping(checkCtx)
		if err != nil {
			controller.Log.Warn("postgres health check failed", zap.Error(err))
			response.Postgres = "down"
			response.Status = "degraded"
		}
	}

	if controller.DBCache != nil {
		response.Redis = "ok"
		err := controller.DBCache.Ping(checkCtx).Err()
		if err != nil {
			controller.Log.Warn("redis health check failed", zap.Error(err))
			response.Redis = "down"
			response.Status = "degraded"
		}
	}

	if response.Status != "ok" {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
