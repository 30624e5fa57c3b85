package diag

import "fmt"

// Code identifies a diagnostic category so that tooling can filter or
// suppress individual checks.
type Code string

const (
	// CodeDocMalformed is raised when a doc-comment block cannot be split
	// into lines (stray text before the per-line marker).
	CodeDocMalformed Code = "PD0001"
	// CodeTypeSyntax covers all grammar failures in a type expression.
	CodeTypeSyntax Code = "PD0002"
	// CodeBoolInUnion recommends spelling the falsy branch of a union as
	// |false instead of |bool.
	CodeBoolInUnion Code = "PD0003"
	// CodeUnresolvedClass reports a class referenced in a doc comment that
	// was never seen anywhere in the project.
	CodeUnresolvedClass Code = "PD0004"
)

// Diagnostic is one message attributed to a source location. Line is the
// best-effort 1-based line of the annotated declaration's tag; 0 when the
// location is unknown.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s [%s]: %s", d.File, d.Line, d.Severity, d.Code, d.Message)
}
