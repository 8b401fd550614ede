package analyzer

import (
	"regexp"
	"strings"
)

// whitespaceClass matches the same code points as an ECMAScript \s. RE2's \s
// is ASCII-only and misses the NBSP and \v that pasted code often carries.
const whitespaceClass = `[\t\n\v\f\r \x{A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`

var (
	forLoopPattern      = regexp.MustCompile(`for` + whitespaceClass + `*\(`)
	whileLoopPattern    = regexp.MustCompile(`while` + whitespaceClass + `*\(`)
	functionPattern     = regexp.MustCompile(`function` + whitespaceClass)
	defPattern          = regexp.MustCompile(`def` + whitespaceClass)
	longIdentifierRegex = regexp.MustCompile(`[a-zA-Z]{12,}`)
)

// StructuralMetrics holds the shallow counts derived from a code snippet.
type StructuralMetrics struct {
	Lines             int  `json:"lines"`
	HasComments       bool `json:"hasComments"`
	LoopCount         int  `json:"loopCount"`
	FunctionCount     int  `json:"functionCount"`
	LongVariableNames int  `json:"longVariableNames"`
}

// AnalyzeStructure extracts structural metrics from raw code text. Matching is
// purely textual, so string literals and comments are counted as well.
func AnalyzeStructure(code string) StructuralMetrics {
	return StructuralMetrics{
		Lines:             strings.Count(code, "\n") + 1,
		HasComments:       strings.Contains(code, "//") || strings.Contains(code, "#"),
		LoopCount:         countMatches(forLoopPattern, code) + countMatches(whileLoopPattern, code),
		FunctionCount:     countMatches(functionPattern, code) + countMatches(defPattern, code),
		LongVariableNames: countMatches(longIdentifierRegex, code),
	}
}

// isWhitespace reports whether r belongs to whitespaceClass.
func isWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

func trimLine(line string) string {
	return strings.TrimFunc(line, isWhitespace)
}

func countMatches(pattern *regexp.Regexp, code string) int {
	return len(pattern.FindAllStringIndex(code, -1))
}
