package http

import (
	"github.com/ferdian3456/virdanengage/internal/delivery/http/middleware"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/ferdian3456/virdanengage/internal/model"
	"github.com/ferdian3456/virdanengage/internal/usecase"
	"github.com/ferdian3456/virdanengage/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type PostController struct {
	PostUsecase *usecase.PostUsecase
	Log         *zap.Logger
	Config      *koanf.Koanf
}

func NewPostController(postUsecase *usecase.PostUsecase, zap *zap.Logger, koanf *koanf.Koanf) *PostController {
	return &PostController{
		PostUsecase: postUsecase,
		Log:         zap,
		Config:      koanf,
	}
}

func (controller *PostController) CreatePost(ctx *fiber.Ctx) error {
	var payload model.PostCreateRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return invalidBody(ctx)
	}

	response, err := controller.PostUsecase.CreatePost(ctx.UserContext(), middleware.ViewerOf(ctx), payload)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendCreatedResponseWithData(ctx, response)
}

func (controller *PostController) GetPost(ctx *fiber.Ctx) error {
	response, err := controller.PostUsecase.GetPost(ctx.UserContext(), middleware.ViewerOf(ctx), ctx.Params("postId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
