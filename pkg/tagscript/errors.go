package tagscript

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is matched by every *LimitError.
var ErrLimitExceeded = errors.New("tagscript: resource limit exceeded")

// FallbackBody replaces the body of a run that tripped a limit.
const FallbackBody = "⚠️ This tag is too complex to run."

// LimitError reports which ceiling a script hit.
type LimitError struct {
	Limit string // "input", "depth", "blocks" or "output"
	Max   int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("tagscript: %s limit exceeded (%d > %d)", e.Limit, e.Got, e.Max)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}
