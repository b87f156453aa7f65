package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

// mockStore backs the API with in-memory quizzes and executions.
type mockStore struct {
	quizzes    map[string]*types.Quiz
	executions map[string]*types.Execution
	healthErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		quizzes:    make(map[string]*types.Quiz),
		executions: make(map[string]*types.Execution),
	}
}

func (m *mockStore) CreateQuiz(ctx context.Context, quiz *types.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	quiz.ID = "quiz-1"
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockStore) GetQuiz(ctx context.Context, quizID string) (*types.Quiz, error) {
	quiz, ok := m.quizzes[quizID]
	if !ok {
		return nil, interfaces.ErrQuizNotFound
	}
	return quiz, nil
}

func (m *mockStore) CreateExecution(ctx context.Context, quizID, ownerID string) (*types.Execution, error) {
	if !types.IsValidUserID(ownerID) {
		return nil, types.ErrInvalidOwnerID
	}
	if _, ok := m.quizzes[quizID]; !ok {
		return nil, interfaces.ErrQuizNotFound
	}
	execution := &types.Execution{ID: "exec-1", QuizID: quizID, OwnerID: ownerID}
	m.executions[execution.ID] = execution
	return execution, nil
}

func (m *mockStore) GetExecution(ctx context.Context, executionID string) (*types.Execution, error) {
	execution, ok := m.executions[executionID]
	if !ok {
		return nil, interfaces.ErrExecutionNotFound
	}
	return execution, nil
}

func (m *mockStore) ListExecutions(ctx context.Context, quizID string) ([]*types.Execution, error) {
	var executions []*types.Execution
	for _, execution := range m.executions {
		if execution.QuizID == quizID {
			executions = append(executions, execution)
		}
	}
	return executions, nil
}

func (m *mockStore) HealthCheck(ctx context.Context) error { return m.healthErr }

type fixedStats map[string]int

func (f fixedStats) Stats() map[string]int { return f }

func newTestServer(store *mockStore) *Server {
	return NewServer(store, store, store, fixedStats{"sessions": 2}, fixedStats{"total_connections": 3})
}

const validQuizJSON = `{
	"title": "Capitals",
	"questions": [
		{"title": "Q1", "answers": [{"title": "A1", "isCorrect": true}, {"title": "A2"}]}
	]
}`

func TestCreateQuiz(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(validQuizJSON))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var quiz types.Quiz
	if err := json.NewDecoder(w.Body).Decode(&quiz); err != nil {
		t.Fatal(err)
	}
	if quiz.ID == "" || quiz.Title != "Capitals" {
		t.Errorf("unexpected response %+v", quiz)
	}
}

func TestCreateQuizValidationFailure(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"title": "Empty"}`))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateQuizInvalidJSON(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetQuiz(t *testing.T) {
	store := newMockStore()
	store.quizzes["quiz-1"] = &types.Quiz{ID: "quiz-1", Title: "Capitals"}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/quiz-1", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestGetQuizNotFound(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/missing", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateExecution(t *testing.T) {
	store := newMockStore()
	store.quizzes["quiz-1"] = &types.Quiz{ID: "quiz-1", Title: "Capitals"}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/quiz-1/executions",
		strings.NewReader(`{"owner_id": "alice"}`))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var execution types.Execution
	if err := json.NewDecoder(w.Body).Decode(&execution); err != nil {
		t.Fatal(err)
	}
	if execution.QuizID != "quiz-1" || execution.OwnerID != "alice" {
		t.Errorf("unexpected execution %+v", execution)
	}
}

func TestCreateExecutionErrors(t *testing.T) {
	store := newMockStore()
	store.quizzes["quiz-1"] = &types.Quiz{ID: "quiz-1", Title: "Capitals"}
	server := newTestServer(store)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing owner", "/api/quizzes/quiz-1/executions", `{}`, http.StatusBadRequest},
		{"invalid owner", "/api/quizzes/quiz-1/executions", `{"owner_id": "has spaces"}`, http.StatusBadRequest},
		{"unknown quiz", "/api/quizzes/missing/executions", `{"owner_id": "alice"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestListExecutions(t *testing.T) {
	store := newMockStore()
	store.quizzes["quiz-1"] = &types.Quiz{ID: "quiz-1", Title: "Capitals"}
	store.executions["exec-1"] = &types.Execution{ID: "exec-1", QuizID: "quiz-1", OwnerID: "alice"}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/quiz-1/executions", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var executions []*types.Execution
	if err := json.NewDecoder(w.Body).Decode(&executions); err != nil {
		t.Fatal(err)
	}
	if len(executions) != 1 {
		t.Errorf("executions = %d, want 1", len(executions))
	}
}

func TestListExecutionsEmptyIsArray(t *testing.T) {
	store := newMockStore()
	store.quizzes["quiz-1"] = &types.Quiz{ID: "quiz-1", Title: "Capitals"}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/quiz-1/executions", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("empty list must encode as [], got %q", body)
	}
}

func TestGetExecution(t *testing.T) {
	store := newMockStore()
	store.executions["exec-1"] = &types.Execution{ID: "exec-1", QuizID: "quiz-1", OwnerID: "alice"}
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/executions/exec-1", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGetExecutionNotFound(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodGet, "/api/executions/missing", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodDelete, "/api/quizzes", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Sessions["sessions"] != 2 || resp.Connections["total_connections"] != 3 {
		t.Errorf("stats not forwarded: %+v", resp)
	}
}

func TestHealthCheckUnhealthy(t *testing.T) {
	store := newMockStore()
	store.healthErr = errors.New("database gone")
	server := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	server := newTestServer(newMockStore())

	req := httptest.NewRequest(http.MethodOptions, "/api/quizzes", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}
