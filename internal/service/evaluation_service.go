package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-code-evaluator/internal/analyzer"
	"github.com/noah-isme/gema-code-evaluator/internal/dto"
	"github.com/noah-isme/gema-code-evaluator/internal/models"
	"github.com/noah-isme/gema-code-evaluator/internal/observability"
	"github.com/noah-isme/gema-code-evaluator/internal/repository"
)

// EvaluationService runs heuristic evaluations and exposes their history.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.EvaluateRequest) (dto.EvaluateResponse, error)
	Recent(ctx context.Context, limit int) ([]dto.EvaluationRecordResponse, error)
}

// ErrCodeRequired indicates the request carried no code.
var ErrCodeRequired = errors.New("code is required")

// ErrHistoryUnavailable indicates evaluation history is not persisted.
var ErrHistoryUnavailable = errors.New("evaluation history unavailable")

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultCacheTTL     = 10 * time.Minute
	cacheKeyPrefix      = "evaluation:"
)

// EventPublisher delivers evaluation events to a message bus. *nats.Conn
// satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// EvaluationServiceConfig describes the optional collaborators' knobs.
type EvaluationServiceConfig struct {
	CacheTTL     time.Duration
	EventSubject string
}

// EvaluationEvent is published after every evaluation.
type EvaluationEvent struct {
	CodeHash     string    `json:"code_hash"`
	Language     string    `json:"language"`
	Success      bool      `json:"success"`
	OverallScore int       `json:"overall_score,omitempty"`
	SyntaxError  string    `json:"syntax_error,omitempty"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

type cachedEvaluation struct {
	Response    *dto.EvaluateResponse `json:"response,omitempty"`
	SyntaxError *analyzer.SyntaxError `json:"syntax_error,omitempty"`
}

func (c cachedEvaluation) unwrap() (dto.EvaluateResponse, error) {
	if c.SyntaxError != nil {
		return dto.EvaluateResponse{}, c.SyntaxError
	}
	if c.Response == nil {
		return dto.EvaluateResponse{}, fmt.Errorf("empty cached evaluation")
	}
	return *c.Response, nil
}

type evaluationService struct {
	records   repository.EvaluationRepository
	cache     *redis.Client
	publisher EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	config    EvaluationServiceConfig
	now       func() time.Time
}

// NewEvaluationService constructs the evaluation service. The repository,
// cache and publisher are optional; a nil value disables that feature.
func NewEvaluationService(records repository.EvaluationRepository, cache *redis.Client, publisher EventPublisher, validate *validator.Validate, logger zerolog.Logger, cfg EvaluationServiceConfig) EvaluationService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	return &evaluationService{
		records:   records,
		cache:     cache,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-code-evaluator/internal/service/evaluation"),
		sanitizer: bluemonday.StrictPolicy(),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, payload dto.EvaluateRequest) (dto.EvaluateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluateResponse{}, ErrCodeRequired
	}

	hash := codeHash(payload)
	if cached, ok := s.readCache(ctx, hash); ok {
		return cached.unwrap()
	}

	attrs := []attribute.KeyValue{
		attribute.String("evaluation.language", payload.Language),
		attribute.Int("evaluation.code_length", len(payload.Code)),
	}
	spanCtx, span := s.tracer.Start(ctx, "evaluation.analyze", trace.WithAttributes(attrs...))
	defer span.End()

	result, err := analyzer.Evaluate(payload.Code, payload.Language)

	var outcome cachedEvaluation
	var syntaxErr *analyzer.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		outcome.SyntaxError = syntaxErr
		span.SetAttributes(attribute.Bool("evaluation.syntax_error", true))
		observability.Evaluations().WithLabelValues(languageLabel(payload.Language), "syntax_error").Inc()
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.EvaluateResponse{}, fmt.Errorf("analyze code: %w", err)
	default:
		response := dto.NewEvaluateResponse(result)
		outcome.Response = &response
		span.SetAttributes(attribute.Int("evaluation.overall_score", result.OverallScore))
		observability.Evaluations().WithLabelValues(languageLabel(payload.Language), "passed").Inc()
	}

	evaluatedAt := s.now().UTC()
	s.record(spanCtx, hash, payload.Language, result, syntaxErr, evaluatedAt)
	s.publish(hash, payload.Language, result, syntaxErr, evaluatedAt)
	s.writeCache(spanCtx, hash, outcome)

	return outcome.unwrap()
}

func (s *evaluationService) Recent(ctx context.Context, limit int) ([]dto.EvaluationRecordResponse, error) {
	if s.records == nil {
		return nil, ErrHistoryUnavailable
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	response := make([]dto.EvaluationRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, dto.NewEvaluationRecordResponse(record))
	}
	return response, nil
}

func (s *evaluationService) readCache(ctx context.Context, hash string) (cachedEvaluation, bool) {
	if s.cache == nil {
		return cachedEvaluation{}, false
	}

	cached, err := s.cache.Get(ctx, cacheKeyPrefix+hash).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read evaluation cache")
		}
		observability.CacheEvents().WithLabelValues("miss").Inc()
		return cachedEvaluation{}, false
	}

	var outcome cachedEvaluation
	if err := json.Unmarshal([]byte(cached), &outcome); err != nil || (outcome.Response == nil && outcome.SyntaxError == nil) {
		s.logger.Warn().Err(err).Str("code_hash", hash).Msg("discarding malformed evaluation cache entry")
		observability.CacheEvents().WithLabelValues("miss").Inc()
		return cachedEvaluation{}, false
	}

	s.logger.Debug().Str("code_hash", hash).Msg("evaluation cache hit")
	observability.CacheEvents().WithLabelValues("hit").Inc()
	return outcome, true
}

func (s *evaluationService) writeCache(ctx context.Context, hash string, outcome cachedEvaluation) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode evaluation cache entry")
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+hash, payload, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store evaluation cache")
	}
}

func (s *evaluationService) record(ctx context.Context, hash, language string, result analyzer.Result, syntaxErr *analyzer.SyntaxError, evaluatedAt time.Time) {
	if s.records == nil {
		return
	}

	record := models.EvaluationRecord{
		CodeHash:  hash,
		Language:  s.sanitizer.Sanitize(language),
		CreatedAt: evaluatedAt,
	}
	if syntaxErr != nil {
		record.SyntaxError = syntaxErr.Error()
	} else {
		record.Success = true
		record.Lines = result.Metrics.Lines
		record.OverallScore = result.OverallScore
		record.Readability = result.Scores.Readability
		record.TimeEfficiency = result.Scores.Efficiency
		record.DesignQuality = result.Scores.Design
		record.Feedback = datatypes.JSONMap{
			"strengths":    result.Feedback.Strengths,
			"improvements": result.Feedback.Improvements,
		}
	}

	if err := s.records.Create(ctx, &record); err != nil {
		s.logger.Warn().Err(err).Str("code_hash", hash).Msg("failed to persist evaluation")
	}
}

func (s *evaluationService) publish(hash, language string, result analyzer.Result, syntaxErr *analyzer.SyntaxError, evaluatedAt time.Time) {
	if s.publisher == nil || s.config.EventSubject == "" {
		return
	}

	event := EvaluationEvent{
		CodeHash:    hash,
		Language:    language,
		Success:     syntaxErr == nil,
		EvaluatedAt: evaluatedAt,
	}
	if syntaxErr != nil {
		event.SyntaxError = syntaxErr.Error()
	} else {
		event.OverallScore = result.OverallScore
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode evaluation event")
		return
	}
	if err := s.publisher.Publish(s.config.EventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.config.EventSubject).Msg("failed to publish evaluation event")
	}
}

func codeHash(payload dto.EvaluateRequest) string {
	sum := sha256.Sum256([]byte(payload.Language + "\x00" + payload.Code))
	return hex.EncodeToString(sum[:])
}

// languageLabel keeps metric cardinality bounded.
func languageLabel(language string) string {
	for _, supported := range analyzer.SupportedLanguages() {
		if language == supported {
			return language
		}
	}
	if language == "" {
		return "none"
	}
	return "other"
}
