package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

// HealthChecker reports store connectivity for the health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsProvider exposes counters from the live-session side for the health
// endpoint without coupling the API to those implementations.
type StatsProvider interface {
	Stats() map[string]int
}

// Server is the thin quiz-authoring surface: create and read quizzes, start
// executions. No business logic beyond validation lives here; the live
// coordination path never goes through HTTP.
type Server struct {
	quizzes    interfaces.QuizStore
	executions interfaces.ExecutionRegistry
	health     HealthChecker
	sessions   StatsProvider
	conns      StatsProvider
	router     *http.ServeMux
}

// NewServer creates the API server and sets up routing.
func NewServer(
	quizzes interfaces.QuizStore,
	executions interfaces.ExecutionRegistry,
	health HealthChecker,
	sessions StatsProvider,
	conns StatsProvider,
) *Server {
	s := &Server{
		quizzes:    quizzes,
		executions: executions,
		health:     health,
		sessions:   sessions,
		conns:      conns,
		router:     http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/quizzes", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleQuizzes))))
	s.router.Handle("/api/quizzes/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleQuizByID))))
	s.router.Handle("/api/executions/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleExecutionByID))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createQuizRequest struct {
	Title     string           `json:"title"`
	Questions []types.Question `json:"questions"`
}

type createExecutionRequest struct {
	OwnerID string `json:"owner_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Sessions    map[string]int `json:"sessions"`
	Connections map[string]int `json:"connections"`
}

// handleQuizzes handles POST /api/quizzes.
func (s *Server) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createQuiz(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleQuizByID handles GET /api/quizzes/{id} and
// POST /api/quizzes/{id}/executions.
func (s *Server) handleQuizByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/quizzes/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		s.sendError(w, "Quiz ID required", http.StatusBadRequest)
		return
	}
	quizID := parts[0]

	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		s.getQuiz(w, r, quizID)
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "executions":
		s.createExecution(w, r, quizID)
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "executions":
		s.listExecutions(w, r, quizID)
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleExecutionByID handles GET /api/executions/{id}.
func (s *Server) handleExecutionByID(w http.ResponseWriter, r *http.Request) {
	executionID := strings.TrimPrefix(r.URL.Path, "/api/executions/")
	if executionID == "" || strings.Contains(executionID, "/") {
		s.sendError(w, "Execution ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getExecution(w, r, executionID)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	quiz := &types.Quiz{Title: req.Title, Questions: req.Questions}
	if err := s.quizzes.CreateQuiz(r.Context(), quiz); err != nil {
		if isValidationError(err) {
			s.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to create quiz: %v", err)
		s.sendError(w, "Failed to create quiz", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, quiz, http.StatusCreated)
}

func (s *Server) getQuiz(w http.ResponseWriter, r *http.Request, quizID string) {
	quiz, err := s.quizzes.GetQuiz(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, interfaces.ErrQuizNotFound) {
			s.sendError(w, "Quiz not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get quiz %s: %v", quizID, err)
		s.sendError(w, "Failed to get quiz", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, quiz, http.StatusOK)
}

func (s *Server) createExecution(w http.ResponseWriter, r *http.Request, quizID string) {
	var req createExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		s.sendError(w, "Owner ID is required", http.StatusBadRequest)
		return
	}

	execution, err := s.executions.CreateExecution(r.Context(), quizID, req.OwnerID)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrQuizNotFound):
			s.sendError(w, "Quiz not found", http.StatusNotFound)
		case errors.Is(err, types.ErrInvalidOwnerID):
			s.sendError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Printf("Failed to create execution for quiz %s: %v", quizID, err)
			s.sendError(w, "Failed to create execution", http.StatusInternalServerError)
		}
		return
	}

	s.sendJSON(w, execution, http.StatusCreated)
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request, quizID string) {
	executions, err := s.executions.ListExecutions(r.Context(), quizID)
	if err != nil {
		log.Printf("Failed to list executions for quiz %s: %v", quizID, err)
		s.sendError(w, "Failed to list executions", http.StatusInternalServerError)
		return
	}
	if executions == nil {
		executions = []*types.Execution{}
	}

	s.sendJSON(w, executions, http.StatusOK)
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request, executionID string) {
	execution, err := s.executions.GetExecution(r.Context(), executionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrExecutionNotFound) {
			s.sendError(w, "Execution not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get execution %s: %v", executionID, err)
		s.sendError(w, "Failed to get execution", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, execution, http.StatusOK)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Database:  "healthy",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.health.HealthCheck(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = err.Error()
	}

	if s.sessions != nil {
		resp.Sessions = s.sessions.Stats()
	}
	if s.conns != nil {
		resp.Connections = s.conns.Stats()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.sendJSON(w, resp, status)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, v interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, errorResponse{Error: message, Code: status}, status)
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, types.ErrInvalidQuizTitle),
		errors.Is(err, types.ErrNoQuestions),
		errors.Is(err, types.ErrInvalidQuestionTitle),
		errors.Is(err, types.ErrTooFewAnswers),
		errors.Is(err, types.ErrInvalidAnswerTitle):
		return true
	}
	return false
}
