package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-code-evaluator/internal/analyzer"
	"github.com/noah-isme/gema-code-evaluator/internal/dto"
	"github.com/noah-isme/gema-code-evaluator/internal/service"
	"github.com/noah-isme/gema-code-evaluator/internal/utils"
)

const (
	codeRequiredMessage   = "Code is required"
	internalErrorMessage  = "Internal server error"
	historyDefaultMessage = "evaluations retrieved"
)

// EvaluationHandler exposes the heuristic evaluation endpoints.
type EvaluationHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires the evaluate endpoint into the router group.
func (h *EvaluationHandler) Register(router fiber.Router, middlewares ...fiber.Handler) {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	handlers = append(handlers, middlewares...)
	router.Post("", append(handlers, h.evaluate)...)
}

// RegisterHistory wires the read-only evaluation endpoints.
func (h *EvaluationHandler) RegisterHistory(router fiber.Router) {
	router.Get("/evaluations", h.history)
	router.Get("/languages", h.languages)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	// non-JSON bodies are ignored and fail validation like an empty payload
	if c.Is("json") && len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to parse evaluation payload")
			return utils.SendErrorBody(c, fiber.StatusInternalServerError, internalErrorMessage)
		}
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendErrorBody(c, fiber.StatusBadRequest, codeRequiredMessage)
	}

	response, err := h.service.Evaluate(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *EvaluationHandler) history(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "limit must be a number")
	}

	records, err := h.service.Recent(c.UserContext(), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list evaluations")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, historyDefaultMessage, records)
}

func (h *EvaluationHandler) languages(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "languages retrieved", dto.LanguagesResponse{Languages: analyzer.SupportedLanguages()})
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var syntaxErr *analyzer.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return c.Status(fiber.StatusOK).JSON(dto.NewSyntaxErrorResponse(syntaxErr))
	case errors.Is(err, service.ErrCodeRequired), isValidationError(err):
		return utils.SendErrorBody(c, fiber.StatusBadRequest, codeRequiredMessage)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation failed")
		return utils.SendErrorBody(c, fiber.StatusInternalServerError, internalErrorMessage)
	}
}
