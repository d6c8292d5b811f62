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

type CommentController struct {
	EngagementUsecase *usecase.EngagementUsecase
	Log               *zap.Logger
	Config            *koanf.Koanf
}

func NewCommentController(engagementUsecase *usecase.EngagementUsecase, zap *zap.Logger, koanf *koanf.Koanf) *CommentController {
	return &CommentController{
		EngagementUsecase: engagementUsecase,
		Log:               zap,
		Config:            koanf,
	}
}

func invalidBody(ctx *fiber.Ctx) error {
	return util.SendErrorResponse(ctx, &model.ValidationError{
		Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
		Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
	})
}

// ListComments shows a page of the post's thread. Without ?page it refetches
// the page the session is already on.
func (controller *CommentController) ListComments(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 0)
	limit := ctx.QueryInt("limit", 0)
	sortBy := ctx.Query("sortBy", "")

	view, err := controller.EngagementUsecase.ListComments(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), page, limit, sortBy)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, view)
}

func (controller *CommentController) CloseThread(ctx *fiber.Ctx) error {
	controller.EngagementUsecase.CloseThread(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"))

	return util.SendSuccessResponseNoData(ctx)
}

func (controller *CommentController) CreateComment(ctx *fiber.Ctx) error {
	var payload model.CommentCreateRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return invalidBody(ctx)
	}

	result, err := controller.EngagementUsecase.CreateComment(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), payload)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendCreatedResponseWithData(ctx, result)
}

func (controller *CommentController) UpdateComment(ctx *fiber.Ctx) error {
	var payload model.CommentUpdateRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return invalidBody(ctx)
	}

	comment, err := controller.EngagementUsecase.UpdateComment(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"), payload)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, comment)
}

func (controller *CommentController) DeleteComment(ctx *fiber.Ctx) error {
	outcome, err := controller.EngagementUsecase.DeleteComment(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, outcome)
}

func (controller *CommentController) ExpandReplies(ctx *fiber.Ctx) error {
	section, err := controller.EngagementUsecase.ExpandReplies(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, section)
}

func (controller *CommentController) CollapseReplies(ctx *fiber.Ctx) error {
	section, err := controller.EngagementUsecase.CollapseReplies(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, section)
}

func (controller *CommentController) ReplyDraft(ctx *fiber.Ctx) error {
	draft, err := controller.EngagementUsecase.PrepareReply(middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"))
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, draft)
}

func (controller *CommentController) ToggleCommentLike(ctx *fiber.Ctx) error {
	wait := ctx.QueryBool("wait", true)

	response, err := controller.EngagementUsecase.ToggleCommentLike(ctx.UserContext(), middleware.SessionIdOf(ctx), middleware.ViewerOf(ctx), ctx.Params("postId"), ctx.Params("commentId"), wait)
	if err != nil {
		return util.SendUsecaseError(ctx, traceMiddleware.GetLoggerFromContext(ctx, controller.Log), err)
	}

	if !wait {
		return ctx.Status(fiber.StatusAccepted).JSON(response)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
