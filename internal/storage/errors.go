package storage

import "fmt"

// Error represents a failed read or write against a storage backend
type Error struct {
	Op      string
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Op + " failed"
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key %s)", msg, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("storage error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("storage error: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
