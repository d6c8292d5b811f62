package exception

import (
	"errors"
	"fmt"

	"github.com/ferdian3456/virdanengage/internal/constant"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func internalError(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
			"message": constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE,
		},
	})
}

// Recovery turns a panicking handler into a 500 with the standard error body.
// The engagement session that panicked keeps its state; only the request is
// lost.
func Recovery(log *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			var errMsg string
			switch v := r.(type) {
			case error:
				errMsg = v.Error()
			case string:
				errMsg = v
			default:
				errMsg = fmt.Sprintf("%v", v)
			}

			traceMiddleware.GetLoggerFromContext(ctx, log).Error("panic occurred and recovered",
				zap.String("error", errMsg),
				zap.String("route", ctx.Route().Path),
				zap.Stack("stack"),
			)

			err = internalError(ctx)
		}()

		return ctx.Next()
	}
}

// ErrorHandler answers errors that escape the handlers, mostly fiber's own
// 404 and 405, in the same JSON shape as everything else.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			code := constant.ERR_VALIDATION_CODE
			if fiberErr.Code == fiber.StatusNotFound {
				code = constant.ERR_NOT_FOUND_ERROR
			}

			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": fiberErr.Message,
				},
			})
		}

		traceMiddleware.GetLoggerFromContext(ctx, log).Error("unhandled error", zap.Error(err))

		return internalError(ctx)
	}
}
