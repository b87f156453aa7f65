package gateway

import (
	"context"
	"errors"
	"log"

	"quizlive/internal/broadcast"
	"quizlive/internal/session"
	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

// GroupMembership is the slice of the connection registry the gateway needs
// to keep broadcast groups consistent with session membership.
type GroupMembership interface {
	JoinGroup(executionID string, conn interfaces.Connection)
	LeaveGroup(executionID, connectionID string)
}

// Gateway is the orchestration entry point for all inbound session events.
// Per event it loads upstream data (before any lock), runs the state-machine
// transition under the session's lock, keeps the connection directory and
// broadcast groups in sync, and fans out the outbound message set. Every
// failure is converted to a private error event to the originating
// connection; nothing here panics the dispatcher or half-applies a
// transition.
type Gateway struct {
	sessions    *session.Registry
	directory   *session.Directory
	broadcaster *broadcast.Coordinator
	groups      GroupMembership
	quizzes     interfaces.QuizStore
	executions  interfaces.ExecutionRegistry
}

// New creates a session gateway.
func New(
	sessions *session.Registry,
	directory *session.Directory,
	broadcaster *broadcast.Coordinator,
	groups GroupMembership,
	quizzes interfaces.QuizStore,
	executions interfaces.ExecutionRegistry,
) *Gateway {
	return &Gateway{
		sessions:    sessions,
		directory:   directory,
		broadcaster: broadcaster,
		groups:      groups,
		quizzes:     quizzes,
		executions:  executions,
	}
}

// HandleHost processes a host event: resolve the execution, gate on
// ownership, load the quiz snapshot, then claim the host role.
func (g *Gateway) HandleHost(ctx context.Context, conn interfaces.Connection, executionID string) {
	execution, quiz, err := g.loadExecution(ctx, executionID)
	if err != nil {
		g.reject(conn, err)
		return
	}

	// Only the user who started the execution may drive it.
	if execution.OwnerID != conn.UserID() {
		g.reject(conn, session.ErrNotAuthorized)
		return
	}

	g.sessions.GetOrCreate(executionID, quiz)

	var outbounds []session.Outbound
	err = g.sessions.WithLock(executionID, func(s *types.Session) error {
		var trErr error
		outbounds, trErr = session.HostConnect(s, conn.ID(), conn.UserID())
		return trErr
	})
	if err != nil {
		g.reject(conn, err)
		return
	}

	// Bind and join the group only after the transition succeeded, and
	// before dispatch so the new host sees its own status broadcast.
	g.directory.Bind(conn.ID(), executionID, types.RoleHost)
	g.groups.JoinGroup(executionID, conn)

	g.broadcaster.Dispatch(executionID, outbounds)
	log.Printf("Host connected: execution=%s connection=%s user=%s", executionID, conn.ID(), conn.UserID())
}

// HandleJoin processes a join event. A session is created on demand so
// participants can gather before the host arrives.
func (g *Gateway) HandleJoin(ctx context.Context, conn interfaces.Connection, executionID string) {
	_, quiz, err := g.loadExecution(ctx, executionID)
	if err != nil {
		g.reject(conn, err)
		return
	}

	g.sessions.GetOrCreate(executionID, quiz)

	var outbounds []session.Outbound
	err = g.sessions.WithLock(executionID, func(s *types.Session) error {
		var trErr error
		outbounds, trErr = session.Join(s, conn.ID())
		return trErr
	})
	if err != nil {
		g.reject(conn, err)
		return
	}

	g.directory.Bind(conn.ID(), executionID, types.RoleParticipant)
	g.groups.JoinGroup(executionID, conn)

	g.broadcaster.Dispatch(executionID, outbounds)
	log.Printf("Participant joined: execution=%s connection=%s user=%s", executionID, conn.ID(), conn.UserID())
}

// HandleNextQuestion advances the session. The quiz snapshot was captured at
// session creation, so no upstream I/O happens here and none inside the lock.
func (g *Gateway) HandleNextQuestion(ctx context.Context, conn interfaces.Connection, executionID string) {
	var outbounds []session.Outbound
	err := g.sessions.WithLock(executionID, func(s *types.Session) error {
		var trErr error
		outbounds, trErr = session.Advance(s, conn.ID())
		return trErr
	})
	if err != nil {
		g.reject(conn, err)
		return
	}

	g.broadcaster.Dispatch(executionID, outbounds)
}

// HandleReset returns the session to the waiting state on the host's order.
func (g *Gateway) HandleReset(ctx context.Context, conn interfaces.Connection, executionID string) {
	var outbounds []session.Outbound
	err := g.sessions.WithLock(executionID, func(s *types.Session) error {
		var trErr error
		outbounds, trErr = session.Reset(s, conn.ID())
		return trErr
	})
	if err != nil {
		g.reject(conn, err)
		return
	}

	g.broadcaster.Dispatch(executionID, outbounds)
	log.Printf("Execution reset: execution=%s by=%s", executionID, conn.ID())
}

// HandleDisconnect routes a bare connection-close to the right session via
// the directory. Disconnects are normal transitions, never errors; an
// unknown connection (never bound, or session already swept) is a no-op.
func (g *Gateway) HandleDisconnect(ctx context.Context, connectionID string) {
	record, ok := g.directory.Unbind(connectionID)
	if !ok {
		return
	}

	g.groups.LeaveGroup(record.ExecutionID, connectionID)

	var outbounds []session.Outbound
	err := g.sessions.WithLock(record.ExecutionID, func(s *types.Session) error {
		outbounds = session.Disconnect(s, connectionID, record.Role)
		return nil
	})
	if err != nil {
		// Session already removed; nothing left to notify.
		return
	}

	g.broadcaster.Dispatch(record.ExecutionID, outbounds)
	log.Printf("Connection left: execution=%s connection=%s role=%s", record.ExecutionID, connectionID, record.Role)
}

// loadExecution resolves an execution and its quiz snapshot. Store failures
// other than not-found are reported as upstream unavailability.
func (g *Gateway) loadExecution(ctx context.Context, executionID string) (*types.Execution, *types.Quiz, error) {
	execution, err := g.executions.GetExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrExecutionNotFound) {
			return nil, nil, session.ErrSessionNotFound
		}
		log.Printf("Execution registry lookup failed for %s: %v", executionID, err)
		return nil, nil, ErrUpstreamUnavailable
	}

	quiz, err := g.quizzes.GetQuiz(ctx, execution.QuizID)
	if err != nil {
		log.Printf("Quiz store lookup failed for %s: %v", execution.QuizID, err)
		return nil, nil, ErrUpstreamUnavailable
	}

	return execution, quiz, nil
}

// reject converts an error into a private error event to the caller.
func (g *Gateway) reject(conn interfaces.Connection, err error) {
	if writeErr := conn.WriteJSON(types.NewErrorEvent(err)); writeErr != nil {
		log.Printf("Failed to send error event to %s: %v", conn.ID(), writeErr)
	}
}
