package http

import (
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/ferdian3456/virdanengage/internal/usecase"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SessionController struct {
	EngagementUsecase *usecase.EngagementUsecase
	SessionMiddleware *middleware.SessionMiddleware
	Log               *zap.Logger
}

func NewSessionController(engagementUsecase *usecase.EngagementUsecase, sessionMiddleware *middleware.SessionMiddleware, zap *zap.Logger) *SessionController {
	return &SessionController{
		EngagementUsecase: engagementUsecase,
		SessionMiddleware: sessionMiddleware,
		Log:               zap,
	}
}

func (controller *SessionController) Notices(ctx *fiber.Ctx) error {
	notices := controller.EngagementUsecase.Notices(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx))

	return util.SendSuccessResponseWithData(ctx, fiber.Map{
		"data": notices,
	})
}

func (controller *SessionController) DismissNotice(ctx *fiber.Ctx) error {
	err := controller.EngagementUsecase.DismissNotice(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("noticeId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseNoData(ctx)
}

// EndSession drops the engagement state of the browsing session and clears
// its cookie.
func (controller *SessionController) EndSession(ctx *fiber.Ctx) error {
	controller.EngagementUsecase.EndSession(middleware.SessionIdOf(ctx))
	controller.SessionMiddleware.Expire(ctx)

	return util.SendSuccessResponseNoData(ctx)
}
