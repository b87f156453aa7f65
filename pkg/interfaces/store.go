package interfaces

import (
	"context"

	"quizlive/pkg/types"
)

// QuizStore provides read/write access to authored quizzes. Quizzes are
// immutable once an execution references them; the coordinator only reads.
type QuizStore interface {
	// CreateQuiz persists a new quiz. The store assigns the ID.
	CreateQuiz(ctx context.Context, quiz *types.Quiz) error

	// GetQuiz retrieves a quiz by ID, or ErrQuizNotFound.
	GetQuiz(ctx context.Context, quizID string) (*types.Quiz, error)
}

// ExecutionRegistry is the durable executionId -> (quizId, ownerUserId)
// mapping created when a quiz is started. The coordinator reads it once per
// host-connect or join, never inside a session lock.
type ExecutionRegistry interface {
	// CreateExecution starts a new execution of a quiz. The store assigns
	// the execution ID.
	CreateExecution(ctx context.Context, quizID, ownerID string) (*types.Execution, error)

	// GetExecution retrieves an execution by ID, or ErrExecutionNotFound.
	GetExecution(ctx context.Context, executionID string) (*types.Execution, error)

	// ListExecutions returns all executions for a quiz.
	ListExecutions(ctx context.Context, quizID string) ([]*types.Execution, error)
}
