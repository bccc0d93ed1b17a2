package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusOf maps the rejection class of err to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, errs.FormatError), errors.Is(err, errs.CapacityError), errors.Is(err, errs.InvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, errs.AuthenticityError):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ReplayError), errors.Is(err, errs.StateError):
		return http.StatusConflict
	case errors.Is(err, errs.NotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.Unsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			status := StatusOf(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadRequest
			}
			return errors.WithStack(ctx.Status(status).JSON(errorResponse{
				Error: e.Message(),
				Code:  e.Code(),
			}))
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).JSON(errorResponse{Error: e.Error()}))
		}
		if status := StatusOf(err); status != http.StatusInternalServerError {
			return errors.WithStack(ctx.Status(status).JSON(errorResponse{
				Error: err.Error(),
				Code:  string(errs.ClassOf(err)),
			}))
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error", err,
			slogx.String("event", "api_unhandled_error"),
		)

		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(errorResponse{
			Error: "Internal Server Error",
		}))
	}
}
