package validation

import (
	"fmt"

	"github.com/jonathan/portfolio-studio/internal/types"
)

// Error reports the issues that blocked a save or publish
type Error struct {
	Issues []types.Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}
	first := e.Issues[0]
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s", first.Message)
	}
	return fmt.Sprintf("validation error: %s (and %d more)", first.Message, len(e.Issues)-1)
}

// First returns the blocking issue the editor surfaces.
func (e *Error) First() types.Issue {
	if len(e.Issues) == 0 {
		return types.Issue{}
	}
	return e.Issues[0]
}

// Nav returns where the editor should navigate to fix the first issue.
func (e *Error) Nav() types.NavTarget {
	return Route(e.First().Key)
}
