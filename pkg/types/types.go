package types

import (
	"time"
)

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionStarted   SessionStatus = "started"
	SessionCompleted SessionStatus = "completed"
)

// Role identifies how a connection participates in a session.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Answer is one selectable answer of a question. IsCorrect is persisted and
// included in the host's quiz snapshot but never leaves the server on any
// participant-visible event.
type Answer struct {
	Title     string `json:"title"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is one question of a quiz with its answers in stored order.
type Question struct {
	Title   string   `json:"title"`
	Answers []Answer `json:"answers"`
}

// Quiz is an immutable authored quiz. Once an execution references a quiz it
// is never modified; the coordinator treats the loaded snapshot as read-only.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Execution is one instantiated, time-bounded run of a quiz. The owner is the
// only user allowed to claim the host role for it.
type Execution struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quiz_id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the in-memory live state of one execution. All fields are
// mutated exclusively under the owning registry entry's lock.
type Session struct {
	ExecutionID          string
	QuizID               string
	Quiz                 *Quiz // immutable snapshot, set at creation
	HostConnectionID     string
	HostUserID           string
	Participants         map[string]struct{} // connection IDs
	Status               SessionStatus
	CurrentQuestionIndex int // -1 before the first question is shown
}

// NewSession creates a session in its initial state for an execution.
func NewSession(executionID string, quiz *Quiz) *Session {
	return &Session{
		ExecutionID:          executionID,
		QuizID:               quiz.ID,
		Quiz:                 quiz,
		Participants:         make(map[string]struct{}),
		Status:               SessionWaiting,
		CurrentQuestionIndex: -1,
	}
}

// ParticipantCount returns the number of joined participant connections.
func (s *Session) ParticipantCount() int {
	return len(s.Participants)
}

// AddParticipant records a participant connection. Re-adding is a no-op on
// membership; the return reports whether the connection was already a member.
func (s *Session) AddParticipant(connectionID string) (existed bool) {
	if _, ok := s.Participants[connectionID]; ok {
		return true
	}
	s.Participants[connectionID] = struct{}{}
	return false
}

// RemoveParticipant removes a participant connection if present.
func (s *Session) RemoveParticipant(connectionID string) {
	delete(s.Participants, connectionID)
}

// ConnectionRecord maps a live connection to the execution it is bound to and
// the role it plays there. Exactly one record exists per bound connection.
type ConnectionRecord struct {
	ExecutionID string
	Role        Role
}
