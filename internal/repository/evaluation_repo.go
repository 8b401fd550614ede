package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-code-evaluator/internal/models"
)

// EvaluationRepository exposes persistence helpers for evaluation history.
type EvaluationRepository interface {
	Create(ctx context.Context, record *models.EvaluationRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.EvaluationRecord, error)
}

// NewEvaluationRepository constructs an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

type evaluationRepository struct {
	db *gorm.DB
}

func (r *evaluationRepository) Create(ctx context.Context, record *models.EvaluationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *evaluationRepository) ListRecent(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	var records []models.EvaluationRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
