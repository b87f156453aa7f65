package types

import "errors"

// Validation error types shared across the authoring surface and the store.
var (
	ErrInvalidQuizTitle     = errors.New("quiz title must be 1-200 characters")
	ErrNoQuestions          = errors.New("quiz must contain at least one question")
	ErrInvalidQuestionTitle = errors.New("question title cannot be empty")
	ErrTooFewAnswers        = errors.New("question must have at least two answers")
	ErrInvalidAnswerTitle   = errors.New("answer title cannot be empty")
	ErrInvalidOwnerID       = errors.New("owner must be a valid user ID")
	ErrInvalidUserID        = errors.New("invalid user ID format")
)
