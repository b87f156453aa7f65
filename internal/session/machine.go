package session

import (
	"quizlive/pkg/types"
)

// Outbound is one message produced by a transition. An empty To means the
// event is broadcast to the whole group of the session's execution.
type Outbound struct {
	To    string // connection ID; empty = group broadcast
	Event types.Event
}

// toGroup builds a group broadcast.
func toGroup(event types.Event) Outbound {
	return Outbound{Event: event}
}

// toConnection builds a direct message to one connection.
func toConnection(connectionID string, event types.Event) Outbound {
	return Outbound{To: connectionID, Event: event}
}

// The transition functions below are the whole of the session state machine.
// They mutate the session and compute the outbound message set, nothing
// else: no I/O, no clock, no transport. Callers invoke them under the
// session's registry lock. On error no field has been mutated.

// HostConnect claims or re-claims the host role for a connection.
//
// The incumbent host is never displaced by a different user; the same
// logical host reconnecting replaces its own stale connection.
func HostConnect(s *types.Session, connectionID, userID string) ([]Outbound, error) {
	if s.HostConnectionID != "" && s.HostUserID != userID {
		return nil, ErrHostAlreadyAssigned
	}

	s.HostConnectionID = connectionID
	s.HostUserID = userID

	return []Outbound{
		toConnection(connectionID, types.Event{
			Type:    types.EventHostDetails,
			Payload: types.HostDetailsPayload{Quiz: s.Quiz},
		}),
		toGroup(types.NewStatusEvent(s)),
	}, nil
}

// Join adds a participant connection. Re-joining is a no-op on membership
// but still re-emits joinDetails and a status broadcast so a reconnecting
// participant gets a fresh snapshot.
func Join(s *types.Session, connectionID string) ([]Outbound, error) {
	s.AddParticipant(connectionID)

	return []Outbound{
		toConnection(connectionID, types.Event{
			Type: types.EventJoinDetails,
			// Title only: joining must not leak future questions.
			Payload: types.JoinDetailsPayload{QuizTitle: s.Quiz.Title},
		}),
		toGroup(types.NewStatusEvent(s)),
	}, nil
}

// Advance moves the session forward on behalf of the host.
//
// The first advance from waiting is a pure status flip with no question
// payload; the host must advance again to reveal question 0. Advancing past
// the last question completes the session.
func Advance(s *types.Session, connectionID string) ([]Outbound, error) {
	if connectionID == "" || connectionID != s.HostConnectionID {
		return nil, ErrNotAuthorized
	}

	switch s.Status {
	case types.SessionWaiting:
		s.Status = types.SessionStarted
		return []Outbound{toGroup(types.NewStatusEvent(s))}, nil

	case types.SessionStarted:
		nextIndex := s.CurrentQuestionIndex + 1
		if nextIndex >= len(s.Quiz.Questions) {
			s.Status = types.SessionCompleted
			return []Outbound{toGroup(types.Event{Type: types.EventQuizCompleted})}, nil
		}

		s.CurrentQuestionIndex = nextIndex
		question := s.Quiz.Questions[nextIndex]
		return []Outbound{
			toGroup(types.Event{
				Type: types.EventNewQuestion,
				Payload: types.NewQuestionPayload{
					Question:       question.Title,
					Answers:        question.AnswerTitles(),
					QuestionNumber: nextIndex + 1,
					TotalQuestions: len(s.Quiz.Questions),
				},
			}),
			toConnection(s.HostConnectionID, types.Event{
				Type:    types.EventQuestionPosted,
				Payload: types.QuestionPostedPayload{QuestionNumber: nextIndex + 1},
			}),
		}, nil

	default: // completed
		return nil, ErrSessionAlreadyCompleted
	}
}

// Reset returns the session to the waiting state with no current question.
// This is a deliberate operator escape hatch, not part of normal
// progression; it is the only transition out of the completed state.
func Reset(s *types.Session, connectionID string) ([]Outbound, error) {
	if connectionID == "" || connectionID != s.HostConnectionID {
		return nil, ErrNotAuthorized
	}

	s.Status = types.SessionWaiting
	s.CurrentQuestionIndex = -1

	return []Outbound{
		toGroup(types.Event{Type: types.EventExecutionReset}),
		toGroup(types.NewStatusEvent(s)),
	}, nil
}

// Disconnect removes a departed connection from the session. A departing
// host leaves the session unhosted but intact, so a later host event can
// re-claim it at the same question index. The transition is idempotent: a
// stale host connection (already replaced by a reconnect) clears nothing.
func Disconnect(s *types.Session, connectionID string, role types.Role) []Outbound {
	switch role {
	case types.RoleHost:
		if s.HostConnectionID == connectionID {
			s.HostConnectionID = ""
			s.HostUserID = ""
		}
	case types.RoleParticipant:
		s.RemoveParticipant(connectionID)
	}

	return []Outbound{toGroup(types.NewStatusEvent(s))}
}
