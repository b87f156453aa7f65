package interfaces

import "errors"

// Common store errors used across components.
var (
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrExecutionNotFound = errors.New("execution not found")
)
