package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// Language labels with dedicated syntax checks.
const (
	LanguagePython = "Python"
	LanguageJava   = "Java"
	LanguageCPP    = "C++"
)

// Typo pairs a known misspelling with its correction.
type Typo struct {
	Wrong   string
	Correct string
}

var pythonTypos = []Typo{
	{Wrong: "ef ", Correct: "def "},
	{Wrong: "prit(", Correct: "print("},
	{Wrong: "df ", Correct: "def "},
	{Wrong: "init ", Correct: "__init__ "},
	{Wrong: "inint ", Correct: "__init__ "},
}

var cppTypos = []Typo{
	{Wrong: "vec<", Correct: "vector<"},
	{Wrong: "cot ", Correct: "cout "},
	{Wrong: "fr(", Correct: "for("},
	{Wrong: "incude ", Correct: "include "},
	{Wrong: "usng ", Correct: "using "},
}

var cppUnterminatedSignature = regexp.MustCompile(
	`^` + whitespaceClass + `*(int|void|char|float|double)` + whitespaceClass + `+\w+` + whitespaceClass + `*\([^)]*$`,
)

type syntaxCheck func(code string, lines []string) error

var syntaxChecks = map[string]syntaxCheck{
	LanguagePython: checkPython,
	LanguageJava:   checkJava,
	LanguageCPP:    checkCPP,
}

// SyntaxError describes a detected syntax issue. Line is 1-based and zero
// when the issue concerns the snippet as a whole.
type SyntaxError struct {
	Language string `json:"language"`
	Line     int    `json:"line,omitempty"`
	Detail   string `json:"detail"`
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Syntax Error in %s on line %d: %s", e.Language, e.Line, e.Detail)
	}
	return fmt.Sprintf("Syntax Error in %s: %s", e.Language, e.Detail)
}

// SupportedLanguages returns the labels CheckSyntax inspects.
func SupportedLanguages() []string {
	return []string{LanguagePython, LanguageJava, LanguageCPP}
}

// CheckSyntax runs the heuristic checks for language and returns a
// *SyntaxError for the first issue found. Unknown labels are never checked.
func CheckSyntax(code, language string) error {
	check, ok := syntaxChecks[language]
	if !ok {
		return nil
	}
	return check(code, strings.Split(code, "\n"))
}

func checkPython(code string, lines []string) error {
	if err := checkTypos(LanguagePython, pythonTypos, code, lines); err != nil {
		return err
	}

	if strings.Contains(code, "prnt(") {
		return &SyntaxError{
			Language: LanguagePython,
			Line:     firstLineContaining(lines, "prnt(", false),
			Detail:   "'prnt' should be 'print'",
		}
	}

	return nil
}

func checkJava(_ string, lines []string) error {
	if firstLineContaining(lines, "class", true) == 0 {
		return &SyntaxError{Language: LanguageJava, Detail: "Missing class declaration"}
	}
	if firstLineContaining(lines, "public static void main", true) == 0 {
		return &SyntaxError{Language: LanguageJava, Detail: "Missing 'public static void main' method"}
	}

	for i, line := range lines {
		if strings.Contains(line, "clas") && !strings.Contains(line, "class") {
			return &SyntaxError{Language: LanguageJava, Line: i + 1, Detail: "'clas' should be 'class'"}
		}
		if strings.Contains(line, "pulic") && !strings.Contains(line, "public") {
			return &SyntaxError{Language: LanguageJava, Line: i + 1, Detail: "'pulic' should be 'public'"}
		}
	}

	return nil
}

func checkCPP(code string, lines []string) error {
	if firstLineContaining(lines, "int main", true) == 0 {
		return &SyntaxError{Language: LanguageCPP, Detail: "Missing 'int main' function"}
	}

	if err := checkTypos(LanguageCPP, cppTypos, code, lines); err != nil {
		return err
	}

	for i, line := range lines {
		trimmed := trimLine(line)
		if cppUnterminatedSignature.MatchString(trimmed) && !strings.Contains(trimmed, ";") && !strings.Contains(trimmed, "{") {
			return &SyntaxError{Language: LanguageCPP, Line: i + 1, Detail: "Missing semicolon or opening brace"}
		}
	}

	return nil
}

// checkTypos reports the first typo in table order whose wrong form appears
// while its correct form appears nowhere in the code.
func checkTypos(language string, typos []Typo, code string, lines []string) error {
	for _, typo := range typos {
		if !strings.Contains(code, typo.Wrong) || strings.Contains(code, typo.Correct) {
			continue
		}
		if line := firstLineContaining(lines, typo.Wrong, false); line > 0 {
			return &SyntaxError{
				Language: language,
				Line:     line,
				Detail:   fmt.Sprintf("'%s' should be '%s'", strings.TrimSpace(typo.Wrong), strings.TrimSpace(typo.Correct)),
			}
		}
	}
	return nil
}

// firstLineContaining returns the 1-based number of the first line containing
// substr, or zero when none does.
func firstLineContaining(lines []string, substr string, trim bool) int {
	for i, line := range lines {
		if trim {
			line = trimLine(line)
		}
		if strings.Contains(line, substr) {
			return i + 1
		}
	}
	return 0
}
