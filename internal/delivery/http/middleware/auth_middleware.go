package middleware

import (
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	Log    *zap.Logger
	Config *koanf.Koanf
}

func NewAuthMiddleware(zap *zap.Logger, koanf *koanf.Koanf) *AuthMiddleware {
	return &AuthMiddleware{
		Log:    zap,
		Config: koanf,
	}
}

// ViewerOf returns the viewer resolved by OptionalAuth, anonymous if none.
func ViewerOf(ctx *fiber.Ctx) model.Viewer {
	viewer, ok := ctx.Locals("viewer").(model.Viewer)
	if !ok {
		return model.Viewer{}
	}

	return viewer
}

// OptionalAuth resolves the viewer from the bearer token. Reads are open to
// everyone, so a missing or bad token makes the request anonymous instead of
// rejecting it.
func (middleware *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		viewer := model.Viewer{}

		accessToken := ctx.Get("Authorization")
		if accessToken != "" {
			tokenString, claims, err := util.ValidateAccessToken(accessToken, middleware.Config.String("JWT_SECRET_KEY"))
			if err != nil {
				middleware.Log.Debug("ignoring invalid access token", zap.Error(err))
			} else {
				viewer = model.Viewer{
					UserId:   claims.UserId,
					Username: claims.Username,
					Token:    tokenString,
				}
				ctx.Locals("userId", claims.UserId)
			}
		}

		ctx.Locals("viewer", viewer)

		return ctx.Next()
	}
}

// ProtectedRoute rejects anonymous viewers. It must run after OptionalAuth.
func (middleware *AuthMiddleware) ProtectedRoute() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !ViewerOf(ctx).IsAuthenticated() {
			return util.SendFailureResponse(ctx, engagement.Unauthenticated())
		}

		return ctx.Next()
	}
}
