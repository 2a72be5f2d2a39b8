package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument is returned by document operations before a paper is selected.
	ErrNoDocument = errors.New("no document selected")
	// ErrUnknownDocument is returned when an identifier matches no known paper.
	ErrUnknownDocument = errors.New("unknown document")
)

// OperationError records which session operation failed and with what parameters.
type OperationError struct {
	Op         string
	DocumentID string
	Params     string
	Err        error
}

func (e *OperationError) Error() string {
	switch {
	case e.DocumentID != "" && e.Params != "":
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.DocumentID, e.Params, e.Err)
	case e.DocumentID != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.DocumentID, e.Err)
	case e.Params != "":
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Params, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(op, documentID, params string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, DocumentID: documentID, Params: params, Err: err}
}
