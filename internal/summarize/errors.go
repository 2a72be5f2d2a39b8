// Package summarize builds the parameterized requests sent to the summarization
// and generation backends.
package summarize

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a request that violates a builder precondition.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyTruncation reports an abstract whose first sentence alone exceeds the
// input budget. It matches ErrInvalidInput under errors.Is.
var ErrEmptyTruncation = fmt.Errorf("%w: truncation left no complete sentence", ErrInvalidInput)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
