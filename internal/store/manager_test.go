package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	dbconfig "quizlive/pkg/database"
	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	config := dbconfig.DefaultConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "quizlive_test.db")

	manager, err := NewManager(config)
	if err != nil {
		t.Fatalf("failed to create store manager: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	return manager
}

func sampleQuiz() *types.Quiz {
	return &types.Quiz{
		Title: "Capitals",
		Questions: []types.Question{
			{Title: "Capital of France?", Answers: []types.Answer{
				{Title: "Paris", IsCorrect: true},
				{Title: "Lyon"},
			}},
			{Title: "Capital of Spain?", Answers: []types.Answer{
				{Title: "Madrid", IsCorrect: true},
				{Title: "Barcelona"},
			}},
		},
	}
}

func TestManager_CreateAndGetQuiz(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	quiz := sampleQuiz()
	if err := m.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}
	if quiz.ID == "" {
		t.Fatal("CreateQuiz did not assign an ID")
	}

	loaded, err := m.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if loaded.Title != "Capitals" {
		t.Errorf("title = %q, want Capitals", loaded.Title)
	}
	if len(loaded.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(loaded.Questions))
	}
	if !loaded.Questions[0].Answers[0].IsCorrect {
		t.Error("correctness flag lost on round trip")
	}
}

func TestManager_CreateQuizRejectsInvalid(t *testing.T) {
	m := newTestManager(t)

	err := m.CreateQuiz(context.Background(), &types.Quiz{Title: "No questions"})
	if !errors.Is(err, types.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestManager_GetQuizNotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetQuiz(context.Background(), "no-such-quiz")
	if !errors.Is(err, interfaces.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestManager_CreateAndGetExecution(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	quiz := sampleQuiz()
	if err := m.CreateQuiz(ctx, quiz); err != nil {
		t.Fatal(err)
	}

	execution, err := m.CreateExecution(ctx, quiz.ID, "alice")
	if err != nil {
		t.Fatalf("CreateExecution failed: %v", err)
	}
	if execution.ID == "" || execution.QuizID != quiz.ID || execution.OwnerID != "alice" {
		t.Fatalf("unexpected execution %+v", execution)
	}

	loaded, err := m.GetExecution(ctx, execution.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if loaded.OwnerID != "alice" {
		t.Errorf("owner = %q, want alice", loaded.OwnerID)
	}
}

func TestManager_CreateExecutionValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	quiz := sampleQuiz()
	if err := m.CreateQuiz(ctx, quiz); err != nil {
		t.Fatal(err)
	}

	if _, err := m.CreateExecution(ctx, quiz.ID, "bad owner!"); !errors.Is(err, types.ErrInvalidOwnerID) {
		t.Errorf("expected ErrInvalidOwnerID, got %v", err)
	}
	if _, err := m.CreateExecution(ctx, "no-such-quiz", "alice"); !errors.Is(err, interfaces.ErrQuizNotFound) {
		t.Errorf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestManager_GetExecutionNotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetExecution(context.Background(), "no-such-execution")
	if !errors.Is(err, interfaces.ErrExecutionNotFound) {
		t.Fatalf("expected ErrExecutionNotFound, got %v", err)
	}
}

func TestManager_ListExecutions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	quiz := sampleQuiz()
	if err := m.CreateQuiz(ctx, quiz); err != nil {
		t.Fatal(err)
	}

	other := sampleQuiz()
	if err := m.CreateQuiz(ctx, other); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := m.CreateExecution(ctx, quiz.ID, "alice"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.CreateExecution(ctx, other.ID, "bob"); err != nil {
		t.Fatal(err)
	}

	executions, err := m.ListExecutions(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(executions) != 3 {
		t.Fatalf("executions = %d, want 3", len(executions))
	}
	for _, execution := range executions {
		if execution.QuizID != quiz.ID {
			t.Errorf("execution for wrong quiz: %+v", execution)
		}
	}
}

func TestManager_HealthCheck(t *testing.T) {
	m := newTestManager(t)

	if err := m.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	config := dbconfig.DefaultConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "quizlive_test.db")

	m, err := NewManager(config)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestManager_WriteAfterCloseRejected(t *testing.T) {
	config := dbconfig.DefaultConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "quizlive_test.db")

	m, err := NewManager(config)
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Close()

	if err := m.CreateQuiz(context.Background(), sampleQuiz()); err == nil {
		t.Fatal("CreateQuiz succeeded on a closed store")
	}
}

func TestManager_RejectsInvalidConfig(t *testing.T) {
	config := dbconfig.DefaultConfig()
	config.DatabasePath = ""

	if _, err := NewManager(config); err == nil {
		t.Fatal("NewManager accepted an empty database path")
	}
}
