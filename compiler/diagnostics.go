package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// Diagnostic categories.
const (
	CategoryLexical  = "Lexical Error"
	CategorySyntax   = "Syntax Error"
	CategorySemantic = "Semantic Error"
)

// Diagnostic codes. They are matched verbatim by external fixtures.
const (
	CodeIllegalChar      = "E1.1"
	CodeSyntax           = "E2.1"
	CodeSyntaxEOF        = "E2.2"
	CodeForKeyword       = "E2.3"
	CodeBadStatement     = "E2.4"
	CodeUnknownType      = "E3.1"
	CodeAllocMismatch    = "E3.2"
	CodeStringToChar     = "E3.3"
	CodeTypeMismatch     = "E3.4"
	CodeUndeclared       = "E3.5"
	CodeUnknownField     = "E3.6"
	CodeConstAssign      = "E3.7"
	CodeReturnOutside    = "E5.1"
	CodeUnknownSubprog   = "E5.2"
	CodeArgCount         = "E5.3"
	CodeRefNotAssignable = "E5.4"
)

// Diagnostic is one compile-time problem. Line is 0 when the problem is at
// the end of input.
type Diagnostic struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Category string `json:"type"`
	Code     string `json:"error_code"`
}

func (d Diagnostic) Error() string {
	loc := fmt.Sprintf("ligne %d", d.Line)
	if d.Line == 0 {
		loc = "fin du fichier"
	}
	return fmt.Sprintf("[%s] [%s] %s: %s", d.Code, d.Category, loc, d.Message)
}

// diagList accumulates diagnostics for one compilation.
type diagList []Diagnostic

func (l *diagList) add(pos Position, category, code, format string, args ...interface{}) {
	*l = append(*l, Diagnostic{
		Line:     pos.Line,
		Column:   pos.Column,
		Message:  fmt.Sprintf(format, args...),
		Category: category,
		Code:     code,
	})
}

// HasErrors reports whether any diagnostic was produced.
func HasErrors(diags []Diagnostic) bool {
	return len(diags) > 0
}
