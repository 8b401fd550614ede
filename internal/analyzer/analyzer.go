// Package analyzer implements the heuristic code evaluation engine: a
// per-language syntax check followed by structural metrics, base scores and
// feedback. Everything here is pure and safe for concurrent use.
package analyzer

// Result aggregates a successful evaluation.
type Result struct {
	Metrics      StructuralMetrics
	Scores       ScoreSet
	OverallScore int
	Feedback     Feedback
}

// Evaluate checks syntax first and, when no issue is found, runs the metrics,
// scoring and feedback pipeline. A detected issue is returned as *SyntaxError.
func Evaluate(code, language string) (Result, error) {
	if err := CheckSyntax(code, language); err != nil {
		return Result{}, err
	}

	metrics := AnalyzeStructure(code)
	scores := ComputeScores(metrics)

	return Result{
		Metrics:      metrics,
		Scores:       scores,
		OverallScore: scores.Overall(),
		Feedback:     GenerateFeedback(metrics, scores),
	}, nil
}
