package http

import (
	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/usecase"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type EngagementController struct {
	EngagementUsecase *usecase.EngagementUsecase
	Log               *zap.Logger
	Config            *koanf.Koanf
}

func NewEngagementController(engagementUsecase *usecase.EngagementUsecase, zap *zap.Logger, koanf *koanf.Koanf) *EngagementController {
	return &EngagementController{
		EngagementUsecase: engagementUsecase,
		Log:               zap,
		Config:            koanf,
	}
}

func (controller *EngagementController) RegisterView(ctx *fiber.Ctx) error {
	result, err := controller.EngagementUsecase.RegisterView(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("kind"), ctx.Params("targetId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, result)
}

func (controller *EngagementController) MountLike(ctx *fiber.Ctx) error {
	var payload model.MountRequest
	if len(ctx.Body()) > 0 {
		err := util.ReadRequestBody(ctx, &payload)
		if err != nil {
			return util.SendErrorResponse(ctx, &model.ValidationError{
				Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
				Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
			})
		}
	}

	response, err := controller.EngagementUsecase.MountLike(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("kind"), ctx.Params("targetId"), payload)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *EngagementController) UnmountLike(ctx *fiber.Ctx) error {
	err := controller.EngagementUsecase.UnmountLike(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("kind"), ctx.Params("targetId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseNoData(ctx)
}

func (controller *EngagementController) GetLike(ctx *fiber.Ctx) error {
	response, err := controller.EngagementUsecase.GetLike(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("kind"), ctx.Params("targetId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

// ToggleLike answers with the settled state. ?wait=false answers right away
// with the optimistic state instead.
func (controller *EngagementController) ToggleLike(ctx *fiber.Ctx) error {
	wait := ctx.QueryBool("wait", true)

	response, err := controller.EngagementUsecase.ToggleLike(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("kind"), ctx.Params("targetId"), wait)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	if !wait {
		return ctx.Status(fiber.StatusAccepted).JSON(response)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
