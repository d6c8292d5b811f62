package route

import (
	"github.com/ferdian3456/virdanengage/internal/delivery/http"
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/gofiber/contrib/otelfiber"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App                  *fiber.App
	Log                  *zap.Logger
	CORSOrigins          string
	DisableRateLimit     bool
	AuthMiddleware       *middleware.AuthMiddleware
	SessionMiddleware    *middleware.SessionMiddleware
	EngagementController *http.EngagementController
	CommentController    *http.CommentController
	SessionController    *http.SessionController
	HealthController     *http.HealthController
	// PostController is nil when engagement data comes from a remote backend.
	PostController *http.PostController
}

func (c *RouteConfig) SetupRoute() {
	c.App.Use(otelfiber.Middleware())
	c.App.Use(traceMiddleware.TraceLoggerMiddleware(c.Log))
	c.App.Use(middleware.SetupCORS(c.CORSOrigins))
	if !c.DisableRateLimit {
		c.App.Use(middleware.SetupRateLimiter(c.Log))
	}

	api := c.App.Group("/api")

	api.Get("/health", c.HealthController.Health)

	engaged := api.Group("", c.SessionMiddleware.Session(), c.AuthMiddleware.OptionalAuth())
	if !c.DisableRateLimit {
		engaged.Use(middleware.SetupMutationRateLimiter(c.Log))
	}

	targetGroup := engaged.Group("/targets/:kind/:targetId")
	targetGroup.Post("/views", c.EngagementController.RegisterView)
	targetGroup.Post("/mount", c.EngagementController.MountLike)
	targetGroup.Delete("/mount", c.EngagementController.UnmountLike)
	targetGroup.Get("/likes", c.EngagementController.GetLike)
	targetGroup.Post("/likes/toggle", c.EngagementController.ToggleLike)

	postGroup := engaged.Group("/posts")
	if c.PostController != nil {
		postGroup.Post("/", c.AuthMiddleware.ProtectedRoute(), c.PostController.CreatePost)
		postGroup.Get("/:postId", c.PostController.GetPost)
	}
	postGroup.Delete("/:postId/thread", c.CommentController.CloseThread)
	postGroup.Get("/:postId/comments", c.CommentController.ListComments)
	postGroup.Post("/:postId/comments", c.CommentController.CreateComment)
	postGroup.Put("/:postId/comments/:commentId", c.CommentController.UpdateComment)
	postGroup.Delete("/:postId/comments/:commentId", c.CommentController.DeleteComment)
	postGroup.Post("/:postId/comments/:commentId/replies/expand", c.CommentController.ExpandReplies)
	postGroup.Post("/:postId/comments/:commentId/replies/collapse", c.CommentController.CollapseReplies)
	postGroup.Get("/:postId/comments/:commentId/reply-draft", c.CommentController.ReplyDraft)
	postGroup.Post("/:postId/comments/:commentId/likes/toggle", c.CommentController.ToggleCommentLike)

	engaged.Get("/notices", c.SessionController.Notices)
	engaged.Delete("/notices/:noticeId", c.SessionController.DismissNotice)
	engaged.Delete("/session", c.SessionController.EndSession)
}
