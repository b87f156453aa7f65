package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	dbconfig "quizlive/pkg/database"
	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

// Manager implements the QuizStore and ExecutionRegistry interfaces over
// SQLite. All writes go through a single goroutine; SQLite allows only one
// writer at a time and serializing them here avoids lock contention errors.
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the database, applies pragmas and migrations, and starts
// the writer goroutine.
func NewManager(config *dbconfig.Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := dbconfig.ApplySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	migrationManager := dbconfig.NewMigrationManager(db)
	if err := migrationManager.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := migrationManager.ValidateSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	manager := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

// writeLoop processes all write operations in a single goroutine.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(m.db)
			if err != nil {
				log.Printf("Database write failed, retrying in 5 seconds: %v", err)
				time.Sleep(5 * time.Second)
				err = op.operation(m.db) // retry once
				if err != nil {
					log.Printf("Database write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-m.shutdown:
			log.Println("Database write loop shutting down")
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion.
func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-m.shutdown:
		return fmt.Errorf("store is shutting down")
	}
}

// CreateQuiz validates and persists a new quiz. The store assigns the ID and
// creation time.
func (m *Manager) CreateQuiz(ctx context.Context, quiz *types.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}

	quiz.ID = uuid.New().String()
	quiz.CreatedAt = time.Now()

	return m.executeWrite(func(db *sql.DB) error {
		// Questions are stored as a JSON column; they are only ever read
		// back as a whole snapshot.
		questionsJSON, err := json.Marshal(quiz.Questions)
		if err != nil {
			return fmt.Errorf("failed to marshal questions: %w", err)
		}

		query := `
			INSERT INTO quizzes (id, title, questions, created_at)
			VALUES (?, ?, ?, ?)
		`
		_, err = db.ExecContext(ctx, query,
			quiz.ID,
			quiz.Title,
			string(questionsJSON),
			quiz.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quiz: %w", err)
		}

		log.Printf("Created quiz: id=%s title=%q questions=%d", quiz.ID, quiz.Title, len(quiz.Questions))
		return nil
	})
}

// GetQuiz retrieves a quiz by ID.
func (m *Manager) GetQuiz(ctx context.Context, quizID string) (*types.Quiz, error) {
	query := `SELECT id, title, questions, created_at FROM quizzes WHERE id = ?`

	var quiz types.Quiz
	var questionsJSON string
	err := m.db.QueryRowContext(ctx, query, quizID).Scan(
		&quiz.ID,
		&quiz.Title,
		&questionsJSON,
		&quiz.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz: %w", err)
	}

	if err := json.Unmarshal([]byte(questionsJSON), &quiz.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}

	return &quiz, nil
}

// CreateExecution starts a new execution of a quiz for an owner. The quiz
// must exist; the store assigns the execution ID.
func (m *Manager) CreateExecution(ctx context.Context, quizID, ownerID string) (*types.Execution, error) {
	if !types.IsValidUserID(ownerID) {
		return nil, types.ErrInvalidOwnerID
	}

	// Verify the quiz exists before recording an execution against it.
	if _, err := m.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}

	execution := &types.Execution{
		ID:        uuid.New().String(),
		QuizID:    quizID,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}

	err := m.executeWrite(func(db *sql.DB) error {
		query := `
			INSERT INTO executions (id, quiz_id, owner_id, created_at)
			VALUES (?, ?, ?, ?)
		`
		_, err := db.ExecContext(ctx, query,
			execution.ID,
			execution.QuizID,
			execution.OwnerID,
			execution.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert execution: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created execution: id=%s quiz=%s owner=%s", execution.ID, execution.QuizID, execution.OwnerID)
	return execution, nil
}

// GetExecution retrieves an execution by ID.
func (m *Manager) GetExecution(ctx context.Context, executionID string) (*types.Execution, error) {
	query := `SELECT id, quiz_id, owner_id, created_at FROM executions WHERE id = ?`

	var execution types.Execution
	err := m.db.QueryRowContext(ctx, query, executionID).Scan(
		&execution.ID,
		&execution.QuizID,
		&execution.OwnerID,
		&execution.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query execution: %w", err)
	}

	return &execution, nil
}

// ListExecutions returns all executions for a quiz, newest first.
func (m *Manager) ListExecutions(ctx context.Context, quizID string) ([]*types.Execution, error) {
	query := `
		SELECT id, quiz_id, owner_id, created_at FROM executions
		WHERE quiz_id = ? ORDER BY created_at DESC
	`
	rows, err := m.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var executions []*types.Execution
	for rows.Next() {
		var execution types.Execution
		if err := rows.Scan(&execution.ID, &execution.QuizID, &execution.OwnerID, &execution.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, &execution)
	}

	return executions, rows.Err()
}

// HealthCheck verifies database connectivity.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := m.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// Close stops the writer goroutine and closes the database.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	return m.db.Close()
}
