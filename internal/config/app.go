package config

import (
	"context"
	"time"

	"github.com/ferdian3456/virdanengage/internal/client"
	http "github.com/ferdian3456/virdanengage/internal/delivery/http"
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	"github.com/ferdian3456/virdanengage/internal/delivery/http/route"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/repository"
	"github.com/ferdian3456/virdanengage/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	BackendModePostgres = "postgres"
	BackendModeRemote   = "remote"
)

type ServerConfig struct {
	Router  *fiber.App
	DB      *pgxpool.Pool // nil in remote mode
	DBCache *redis.Client
	Cookie  *securecookie.SecureCookie
	Log     *zap.Logger
	Config  *koanf.Koanf
}

// Server wires repositories, usecases and controllers onto the router. The
// session registry sweeps idle sessions until ctx is done.
func Server(ctx context.Context, config *ServerConfig) *usecase.SessionRegistry {
	sessionTTL := DurationOr(config.Config, "SESSION_TTL", 24*time.Hour)
	idleTTL := DurationOr(config.Config, "SESSION_IDLE_TTL", 30*time.Minute)

	markerRepository := repository.NewMarkerRepository(config.Log, config.DBCache, sessionTTL)
	pageCacheRepository := repository.NewPageCacheRepository(config.Log, config.DBCache, DurationOr(config.Config, "PAGE_CACHE_TTL", time.Minute))

	var postController *http.PostController
	var newBackend usecase.BackendFactory

	backendMode := StringOr(config.Config, "BACKEND_MODE", BackendModePostgres)
	switch backendMode {
	case BackendModeRemote:
		remote := client.New(config.Config.String("BACKEND_URL"), DurationOr(config.Config, "BACKEND_TIMEOUT", 10*time.Second), config.Log)
		newBackend = func(viewer model.Viewer) engagement.Backend {
			return remote.ForViewer(viewer.Token)
		}
	default:
		if config.DB == nil {
			config.Log.Fatal("postgres backend mode needs a database pool")
		}

		engagementRepository := repository.NewEngagementRepository(config.Log, config.DB)
		postRepository := repository.NewPostRepository(config.Log, config.DB)
		newBackend = func(viewer model.Viewer) engagement.Backend {
			return usecase.NewViewerBackend(engagementRepository, postRepository, config.DB, config.Log, viewer.UserId, viewer.Username)
		}

		postUsecase := usecase.NewPostUsecase(postRepository, config.Log, config.Config)
		postController = http.NewPostController(postUsecase, config.Log, config.Config)
	}

	config.Log.Info("engagement backend selected", zap.String("mode", backendMode))

	registry := usecase.NewSessionRegistry(newBackend, engagement.SessionOptions{
		Markers:        markerRepository,
		Cache:          pageCacheRepository,
		NoticeCapacity: IntOr(config.Config, "NOTICE_CAPACITY", 20),
		PageLimit:      IntOr(config.Config, "COMMENT_PAGE_LIMIT", engagement.DefaultPageLimit),
		ReplyLimit:     IntOr(config.Config, "REPLY_LIMIT", engagement.DefaultReplyLimit),
		Log:            config.Log,
	}, idleTTL, config.Log)
	go registry.Run(ctx)

	engagementUsecase := usecase.NewEngagementUsecase(registry, config.Log, config.Config)

	authMiddleware := middleware.NewAuthMiddleware(config.Log, config.Config)
	sessionMiddleware := middleware.NewSessionMiddleware(config.Log, config.Cookie, sessionTTL, config.Config.Bool("SESSION_COOKIE_SECURE"))

	routeConfig := route.RouteConfig{
		App:                  config.Router,
		Log:                  config.Log,
		CORSOrigins:          config.Config.String("CORS_ORIGINS"),
		DisableRateLimit:     config.Config.Bool("RATE_LIMIT_DISABLED"),
		AuthMiddleware:       authMiddleware,
		SessionMiddleware:    sessionMiddleware,
		EngagementController: http.NewEngagementController(engagementUsecase, config.Log, config.Config),
		CommentController:    http.NewCommentController(engagementUsecase, config.Log, config.Config),
		SessionController:    http.NewSessionController(engagementUsecase, sessionMiddleware, config.Log),
		HealthController:     http.NewHealthController(config.DB, config.DBCache, config.Log),
		PostController:       postController,
	}

	routeConfig.SetupRoute()

	return registry
}
