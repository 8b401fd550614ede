package dto

import (
	"time"

	"github.com/noah-isme/gema-code-evaluator/internal/analyzer"
	"github.com/noah-isme/gema-code-evaluator/internal/models"
)

// EvaluateRequest represents the payload for a heuristic evaluation.
type EvaluateRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language"`
}

// EvaluationMetricsResponse exposes the per-dimension scores.
type EvaluationMetricsResponse struct {
	Readability    int `json:"readability"`
	TimeEfficiency int `json:"timeEfficiency"`
	DesignQuality  int `json:"designQuality"`
}

// EvaluateResponse is returned for a snippet that passed the syntax check.
type EvaluateResponse struct {
	Success      bool                      `json:"success"`
	OverallScore int                       `json:"overallScore"`
	Metrics      EvaluationMetricsResponse `json:"metrics"`
	Strengths    []string                  `json:"strengths"`
	Improvements []string                  `json:"improvements"`
}

// SyntaxErrorResponse is returned when the syntax check flags the snippet.
type SyntaxErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewEvaluateResponse converts an analyzer result into a response DTO.
func NewEvaluateResponse(result analyzer.Result) EvaluateResponse {
	return EvaluateResponse{
		Success:      true,
		OverallScore: result.OverallScore,
		Metrics: EvaluationMetricsResponse{
			Readability:    result.Scores.Readability,
			TimeEfficiency: result.Scores.Efficiency,
			DesignQuality:  result.Scores.Design,
		},
		Strengths:    nonNil(result.Feedback.Strengths),
		Improvements: nonNil(result.Feedback.Improvements),
	}
}

// NewSyntaxErrorResponse builds the response for a detected syntax issue.
func NewSyntaxErrorResponse(err error) SyntaxErrorResponse {
	return SyntaxErrorResponse{Success: false, Error: err.Error()}
}

// EvaluationRecordResponse describes a stored evaluation.
type EvaluationRecordResponse struct {
	ID             uint      `json:"id"`
	CodeHash       string    `json:"codeHash"`
	Language       string    `json:"language"`
	Lines          int       `json:"lines"`
	Success        bool      `json:"success"`
	SyntaxError    string    `json:"syntaxError,omitempty"`
	OverallScore   int       `json:"overallScore"`
	Readability    int       `json:"readability"`
	TimeEfficiency int       `json:"timeEfficiency"`
	DesignQuality  int       `json:"designQuality"`
	Strengths      []string  `json:"strengths"`
	Improvements   []string  `json:"improvements"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewEvaluationRecordResponse converts a stored record into a DTO.
func NewEvaluationRecordResponse(record models.EvaluationRecord) EvaluationRecordResponse {
	response := EvaluationRecordResponse{
		ID:             record.ID,
		CodeHash:       record.CodeHash,
		Language:       record.Language,
		Lines:          record.Lines,
		Success:        record.Success,
		OverallScore:   record.OverallScore,
		Readability:    record.Readability,
		TimeEfficiency: record.TimeEfficiency,
		DesignQuality:  record.DesignQuality,
		Strengths:      feedbackList(record.Feedback, "strengths"),
		Improvements:   feedbackList(record.Feedback, "improvements"),
		CreatedAt:      record.CreatedAt,
	}
	// a stale diagnostic on a passed record is not surfaced
	if record.HasSyntaxError() {
		response.SyntaxError = record.SyntaxError
	}
	return response
}

// LanguagesResponse lists the languages with dedicated syntax checks.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

func feedbackList(feedback map[string]interface{}, key string) []string {
	result := []string{}
	switch values := feedback[key].(type) {
	case []string:
		result = append(result, values...)
	case []interface{}:
		for _, value := range values {
			if text, ok := value.(string); ok {
				result = append(result, text)
			}
		}
	}
	return result
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
