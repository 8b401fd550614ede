package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-code-evaluator/internal/analyzer"
	"github.com/noah-isme/gema-code-evaluator/internal/dto"
	"github.com/noah-isme/gema-code-evaluator/internal/models"
	"github.com/noah-isme/gema-code-evaluator/internal/repository"
)

type stubPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *stubPublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

type stubEvaluationRepo struct {
	created []models.EvaluationRecord
	records []models.EvaluationRecord
	limit   int
	err     error
}

func (s *stubEvaluationRepo) Create(ctx context.Context, record *models.EvaluationRecord) error {
	if s.err != nil {
		return s.err
	}
	record.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *record)
	return nil
}

func (s *stubEvaluationRepo) ListRecent(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.limit = limit
	return s.records, nil
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func TestEvaluationServiceRejectsMissingCode(t *testing.T) {
	svc := NewEvaluationService(nil, nil, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})

	_, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{Language: "Python"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCodeRequired))
}

func TestEvaluationServiceScoresCode(t *testing.T) {
	svc := NewEvaluationService(nil, nil, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Code:     "# add numbers\ndef add(a, b):\n    return a + b",
		Language: "Python",
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 85, resp.OverallScore)
	require.Equal(t, dto.EvaluationMetricsResponse{Readability: 80, TimeEfficiency: 90, DesignQuality: 85}, resp.Metrics)
	require.Equal(t, []string{analyzer.StrengthModular, analyzer.StrengthCommented, analyzer.StrengthEfficientLoops}, resp.Strengths)
	require.Empty(t, resp.Improvements)
	require.NotNil(t, resp.Improvements)
}

func TestEvaluationServiceReturnsSyntaxError(t *testing.T) {
	repo := &stubEvaluationRepo{}
	publisher := &stubPublisher{}
	svc := NewEvaluationService(repo, nil, publisher, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{EventSubject: "evaluations.completed"})

	_, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{Code: "def f():\n  prnt(1)", Language: "Python"})
	require.EqualError(t, err, "Syntax Error in Python on line 2: 'prnt' should be 'print'")

	var syntaxErr *analyzer.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))

	require.Len(t, repo.created, 1)
	require.False(t, repo.created[0].Success)
	require.True(t, repo.created[0].HasSyntaxError())

	require.Len(t, publisher.payloads, 1)
	var event EvaluationEvent
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &event))
	require.False(t, event.Success)
	require.Equal(t, "Python", event.Language)
	require.Equal(t, syntaxErr.Error(), event.SyntaxError)
}

func TestEvaluationServicePersistsAndPublishes(t *testing.T) {
	repo := &stubEvaluationRepo{}
	publisher := &stubPublisher{}
	svc := NewEvaluationService(repo, nil, publisher, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{EventSubject: "evaluations.completed"})
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc.(*evaluationService).now = func() time.Time { return fixed }

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{Code: "x = 1", Language: "<b>Python</b>"})
	require.NoError(t, err)
	require.Equal(t, 72, resp.OverallScore)

	require.Len(t, repo.created, 1)
	record := repo.created[0]
	require.True(t, record.Success)
	require.Equal(t, "Python", record.Language)
	require.Equal(t, 72, record.OverallScore)
	require.Equal(t, 1, record.Lines)
	require.Equal(t, fixed, record.CreatedAt)
	require.Len(t, record.CodeHash, 64)

	require.Equal(t, []string{"evaluations.completed"}, publisher.subjects)
	var event EvaluationEvent
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &event))
	require.True(t, event.Success)
	require.Equal(t, 72, event.OverallScore)
	require.Equal(t, record.CodeHash, event.CodeHash)
}

func TestEvaluationServiceIgnoresSideEffectFailures(t *testing.T) {
	repo := &stubEvaluationRepo{err: errors.New("database down")}
	publisher := &stubPublisher{err: errors.New("nats down")}
	svc := NewEvaluationService(repo, nil, publisher, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{EventSubject: "evaluations.completed"})

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{Code: "print(1)", Language: "Python"})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

func TestEvaluationServiceCachesOutcomes(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	repo := &stubEvaluationRepo{}
	svc := NewEvaluationService(repo, redisClient, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{CacheTTL: time.Minute})
	ctx := context.Background()

	payload := dto.EvaluateRequest{Code: "for (a) {}\nwhile (b) {}", Language: "JavaScript"}
	first, err := svc.Evaluate(ctx, payload)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	key := cacheKeyPrefix + codeHash(payload)
	require.True(t, mini.Exists(key))
	require.Equal(t, time.Minute, mini.TTL(key))

	second, err := svc.Evaluate(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, repo.created, 1, "cache hit must not re-run the pipeline")

	broken := dto.EvaluateRequest{Code: "int main() {\n  cot << 1;\n}", Language: "C++"}
	_, firstErr := svc.Evaluate(ctx, broken)
	require.Error(t, firstErr)
	_, secondErr := svc.Evaluate(ctx, broken)
	require.Error(t, secondErr)
	require.Equal(t, firstErr.Error(), secondErr.Error())

	var syntaxErr *analyzer.SyntaxError
	require.True(t, errors.As(secondErr, &syntaxErr))
	require.Equal(t, 2, syntaxErr.Line)
}

func TestEvaluationServiceDiscardsMalformedCacheEntries(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := NewEvaluationService(nil, redisClient, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})

	payload := dto.EvaluateRequest{Code: "x", Language: "Python"}
	require.NoError(t, mini.Set(cacheKeyPrefix+codeHash(payload), "{not json"))

	resp, err := svc.Evaluate(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, 72, resp.OverallScore)
}

func TestEvaluationServiceRecent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EvaluationRecord{}))

	svc := NewEvaluationService(repository.NewEvaluationRepository(db), nil, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})
	ctx := context.Background()

	_, err = svc.Evaluate(ctx, dto.EvaluateRequest{Code: "// note\nfunction run() {}", Language: "JavaScript"})
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, dto.EvaluateRequest{Code: "public class A {}", Language: "Java"})
	require.Error(t, err)

	records, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byLanguage := map[string]dto.EvaluationRecordResponse{}
	for _, record := range records {
		byLanguage[record.Language] = record
	}
	require.True(t, byLanguage["JavaScript"].Success)
	require.Equal(t, []string{analyzer.StrengthModular, analyzer.StrengthCommented, analyzer.StrengthEfficientLoops}, byLanguage["JavaScript"].Strengths)
	require.Equal(t, "Syntax Error in Java: Missing 'public static void main' method", byLanguage["Java"].SyntaxError)
}

func TestEvaluationServiceRecentLimits(t *testing.T) {
	repo := &stubEvaluationRepo{}
	svc := NewEvaluationService(repo, nil, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})

	_, err := svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, maxHistoryLimit, repo.limit)

	_, err = svc.Recent(context.Background(), -1)
	require.NoError(t, err)
	require.Equal(t, defaultHistoryLimit, repo.limit)
}

func TestEvaluationServiceRecentWithoutRepository(t *testing.T) {
	svc := NewEvaluationService(nil, nil, nil, newTestValidator(), zerolog.Nop(), EvaluationServiceConfig{})

	_, err := svc.Recent(context.Background(), 10)
	require.True(t, errors.Is(err, ErrHistoryUnavailable))
}

func TestLanguageLabel(t *testing.T) {
	require.Equal(t, "C++", languageLabel("C++"))
	require.Equal(t, "none", languageLabel(""))
	require.Equal(t, "other", languageLabel("Rust"))
}
