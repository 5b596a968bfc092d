package portfolio

import "fmt"

// ParseError represents malformed JSON handed to the import or restore path
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// PathError represents a path-addressed read or write that cannot be applied
type PathError struct {
	Path    string
	Segment string
	Message string
}

func (e *PathError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("path error: %s at %q in %q", e.Message, e.Segment, e.Path)
	}
	return fmt.Sprintf("path error: %s in %q", e.Message, e.Path)
}

// ListError represents an out-of-range or unknown-list edit
type ListError struct {
	Field   string
	Index   int
	Message string
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list error: %s: %s[%d]", e.Message, e.Field, e.Index)
}
