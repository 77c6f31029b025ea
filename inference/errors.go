package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput means the request carried no fields at all.
	ErrEmptyInput = errors.New("no input data provided")
	// ErrNoPredictionYet means nothing has been predicted since start.
	ErrNoPredictionYet = errors.New("no predictions yet")
	// ErrInvalidInput is only returned when the transformer rejects input.
	ErrInvalidInput = errors.New("invalid input")
)

// InternalError wraps an unexpected failure while transforming or scoring.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// ErrorKind names an error for logs and metrics.
func ErrorKind(err error) string {
	var internal *InternalError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrNoPredictionYet):
		return "no_prediction"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.As(err, &internal):
		return "internal"
	default:
		return "unknown"
	}
}
