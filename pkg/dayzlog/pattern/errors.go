package pattern

import "fmt"

// ValidationError represents a schema-level validation error, raised when
// a pattern file violates structural requirements (missing fields,
// unsupported version).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// PatternError represents an error in an individual pattern (invalid
// regex, duplicate ID, missing fields).
type PatternError struct {
	Index   int    // 0-based index of the pattern in the file
	ID      string // pattern ID, may be empty if the field is missing
	Field   string
	Message string
	Cause   error
}

func (e *PatternError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("pattern %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("pattern[%d]: %s: %s", e.Index, e.Field, e.Message)
}

func (e *PatternError) Unwrap() error { return e.Cause }
