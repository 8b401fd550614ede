package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationRecord stores the outcome of a heuristic evaluation. The source
// code itself is never persisted, only its hash.
type EvaluationRecord struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	CodeHash       string            `gorm:"size:64;index" json:"code_hash"`
	Language       string            `gorm:"size:32" json:"language"`
	Lines          int               `gorm:"default:0" json:"lines"`
	Success        bool              `gorm:"not null" json:"success"`
	SyntaxError    string            `gorm:"type:text" json:"syntax_error"`
	OverallScore   int               `gorm:"default:0" json:"overall_score"`
	Readability    int               `gorm:"default:0" json:"readability"`
	TimeEfficiency int               `gorm:"default:0" json:"time_efficiency"`
	DesignQuality  int               `gorm:"default:0" json:"design_quality"`
	Feedback       datatypes.JSONMap `json:"feedback"`
	CreatedAt      time.Time         `gorm:"index" json:"created_at"`
}

// HasSyntaxError reports whether the evaluation stopped at the syntax check.
func (r EvaluationRecord) HasSyntaxError() bool {
	return !r.Success && r.SyntaxError != ""
}
