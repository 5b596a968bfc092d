package contact

import "fmt"

// DeliveryError represents a formspree submission that did not go through.
// Pending keeps the visitor's message so it can be resubmitted.
type DeliveryError struct {
	Pending    Message
	StatusCode int
	Message    string
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("delivery error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("delivery error: %s", e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// InvalidError represents a message that cannot be sent as configured
type InvalidError struct {
	Message string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("contact error: %s", e.Message)
}
