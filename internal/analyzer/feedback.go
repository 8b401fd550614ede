package analyzer

// Feedback messages, in the order the rules emit them.
const (
	StrengthModular        = "Code is modular with function usage."
	ImprovementModularize  = "Consider breaking logic into functions."
	StrengthCommented      = "Includes comments improving readability."
	ImprovementAddComments = "Add comments to explain logic."
	ImprovementNestedLoops = "Nested loops detected. Optimize to reduce time complexity."
	StrengthEfficientLoops = "Efficient iteration strategy."
)

// Feedback lists qualitative observations about a snippet.
type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// GenerateFeedback turns metrics into ordered strengths and improvements.
// Scores are accepted so future rules can depend on them; none do today.
func GenerateFeedback(metrics StructuralMetrics, _ ScoreSet) Feedback {
	feedback := Feedback{
		Strengths:    []string{},
		Improvements: []string{},
	}

	if metrics.FunctionCount > 0 {
		feedback.Strengths = append(feedback.Strengths, StrengthModular)
	} else {
		feedback.Improvements = append(feedback.Improvements, ImprovementModularize)
	}

	if metrics.HasComments {
		feedback.Strengths = append(feedback.Strengths, StrengthCommented)
	} else {
		feedback.Improvements = append(feedback.Improvements, ImprovementAddComments)
	}

	if metrics.LoopCount >= 2 {
		feedback.Improvements = append(feedback.Improvements, ImprovementNestedLoops)
	}

	// a single loop earns neither message
	if metrics.LoopCount == 0 {
		feedback.Strengths = append(feedback.Strengths, StrengthEfficientLoops)
	}

	return feedback
}
