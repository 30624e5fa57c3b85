package phpdoc

import "fmt"

// ErrKind distinguishes the ways a type-expression parse can fail. Every
// failure aborts only the current type string; the surrounding compilation
// decides what to do with the affected declaration.
type ErrKind uint8

const (
	// ErrUnexpectedEnd means the input ran out in the middle of a construct.
	ErrUnexpectedEnd ErrKind = iota
	// ErrUnmatchedBracket covers every (), [], <> pairing failure, including
	// a parameterized type missing its argument bracket or comma.
	ErrUnmatchedBracket
	// ErrUnknownTypeName means no grammar rule matched at the current position.
	ErrUnknownTypeName
	// ErrTrailingInput means a valid type was parsed but characters remain.
	ErrTrailingInput
	// ErrTraitUsedAsType means the referenced class is a trait, which cannot
	// stand as a type.
	ErrTraitUsedAsType
)

func (k ErrKind) String() string {
	switch k {
	case ErrUnexpectedEnd:
		return "unexpected end"
	case ErrUnmatchedBracket:
		return "unmatched bracket"
	case ErrUnknownTypeName:
		return "unknown type name"
	case ErrTrailingInput:
		return "trailing input"
	case ErrTraitUsedAsType:
		return "trait used as type"
	}
	return "parse error"
}

// ParseError reports a grammar failure at a byte position of the type
// string being parsed.
type ParseError struct {
	Kind ErrKind
	Pos  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse phpdoc type at offset %d: %s", e.Pos, e.Msg)
}

func parseErrf(kind ErrKind, pos int, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
