package util

import (
	"errors"

	"github.com/ferdian3456/virdanengage/internal/constant"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ReadRequestBody(ctx *fiber.Ctx, result interface{}) error {
	err := ctx.BodyParser(result)
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseNoData(ctx *fiber.Ctx) error {
	err := ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "OK",
	})
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusOK).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

func SendCreatedResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusCreated).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponse(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseNotFound(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseInternalServer(ctx *fiber.Ctx, log *zap.Logger, error error) error {
	log.Error("internal server error occured", zap.Error(error))
	err := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
			"message": constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE,
		},
	})

	if err != nil {
		return err
	}

	return err
}

func failureStatus(kind engagement.FailureKind) (int, string) {
	switch kind {
	case engagement.FailureAuthRequired:
		return fiber.StatusUnauthorized, constant.ERR_AUTH_REQUIRED_CODE
	case engagement.FailureInFlight:
		return fiber.StatusConflict, constant.ERR_TOGGLE_IN_FLIGHT_CODE
	case engagement.FailureFetchFailed:
		return fiber.StatusBadGateway, constant.ERR_FETCH_FAILED_CODE
	case engagement.FailureInvalid:
		return fiber.StatusBadRequest, constant.ERR_VALIDATION_CODE
	case engagement.FailureUnmounted:
		return fiber.StatusGone, constant.ERR_TARGET_UNMOUNTED_CODE
	default:
		return fiber.StatusBadGateway, constant.ERR_MUTATION_FAILED_CODE
	}
}

func SendFailureResponse(ctx *fiber.Ctx, failure *engagement.Failure) error {
	status, code := failureStatus(failure.Kind)

	body := fiber.Map{
		"code":    code,
		"message": failure.Message,
	}
	if failure.Target.ID != "" {
		body["param"] = failure.Target.ID
	}
	if failure.Retryable() {
		body["retryable"] = true
	}

	err := ctx.Status(status).JSON(fiber.Map{
		"error": body,
	})
	if err != nil {
		return err
	}

	return nil
}

// SendUsecaseError writes the response for an error returned by a usecase:
// validation errors, engine failures, or anything else as an internal error.
func SendUsecaseError(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Code == constant.ERR_NOT_FOUND_ERROR {
			return SendErrorResponseNotFound(ctx, validationErr)
		}

		return SendErrorResponse(ctx, validationErr)
	}

	failure, ok := engagement.AsFailure(err)
	if ok {
		if failure.Err != nil {
			log.Debug("engagement failure", zap.String("kind", string(failure.Kind)), zap.String("op", failure.Op), zap.Error(failure.Err))
		}

		return SendFailureResponse(ctx, failure)
	}

	return SendErrorResponseInternalServer(ctx, log, err)
}
