package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-code-evaluator/internal/utils"
)

const internalErrorMessage = "Internal server error"

// ErrorHandler renders errors that escape the handlers as {"error": ...}.
// *fiber.Error keeps its status and message; anything else, recovered
// panics included, becomes an opaque 500.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.SendErrorBody(c, fiberErr.Code, fiberErr.Message)
		}

		logger.Error().
			Err(err).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled request error")

		return utils.SendErrorBody(c, fiber.StatusInternalServerError, internalErrorMessage)
	}
}
