package analyzer

import "math"

// ScoreSet contains the heuristic rating per dimension. Values stay within
// [0, 100] for the current rule table.
type ScoreSet struct {
	Readability int `json:"readability"`
	Efficiency  int `json:"efficiency"`
	Design      int `json:"design"`
}

// ComputeScores applies the fixed scoring rules to the metrics.
func ComputeScores(metrics StructuralMetrics) ScoreSet {
	readability := 60
	if metrics.HasComments {
		readability = 80
	}
	if metrics.LongVariableNames > 3 {
		readability += 5
	}

	efficiency := 90
	if metrics.LoopCount >= 2 {
		efficiency -= 20
	}

	design := 65
	if metrics.FunctionCount > 0 {
		design = 85
	}

	return ScoreSet{
		Readability: readability,
		Efficiency:  efficiency,
		Design:      design,
	}
}

// Overall returns the rounded mean of the three dimensions.
func (s ScoreSet) Overall() int {
	sum := s.Readability + s.Efficiency + s.Design
	return int(math.Round(float64(sum) / 3))
}
