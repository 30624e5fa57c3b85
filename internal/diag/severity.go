package diag

// Severity classifies how serious a diagnostic is. Lints are warnings and
// never stop a compilation; errors abort the construct they belong to.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}
