package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development; production deployments should
		// restrict this.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// EventGateway receives dispatched session events. The gateway converts its
// own failures to error events, so dispatch never returns anything.
type EventGateway interface {
	HandleHost(ctx context.Context, conn interfaces.Connection, executionID string)
	HandleJoin(ctx context.Context, conn interfaces.Connection, executionID string)
	HandleNextQuestion(ctx context.Context, conn interfaces.Connection, executionID string)
	HandleReset(ctx context.Context, conn interfaces.Connection, executionID string)
	HandleDisconnect(ctx context.Context, connectionID string)
}

// Options tunes connection handling. Zero values fall back to defaults.
type Options struct {
	PingInterval    time.Duration
	ReadTimeout     time.Duration
	EventsPerMinute int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 60 * time.Second
	}
	if o.EventsPerMinute <= 0 {
		o.EventsPerMinute = 60
	}
	return o
}

// Handler upgrades HTTP requests to WebSocket connections and pumps inbound
// events into the gateway. Identity arrives as a query parameter from the
// external auth layer; by the time a connection reaches the gateway it is
// already authenticated.
type Handler struct {
	registry *Registry
	gateway  EventGateway
	limiter  *RateLimiter
	opts     Options
}

// NewHandler creates a WebSocket handler.
func NewHandler(registry *Registry, gateway EventGateway, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		registry: registry,
		gateway:  gateway,
		limiter:  NewRateLimiter(opts.EventsPerMinute),
		opts:     opts,
	}
}

// clientMessage is the inbound wire envelope.
type clientMessage struct {
	Type    string `json:"type"`
	Payload struct {
		ExecutionID string `json:"executionId"`
	} `json:"payload"`
}

// HandleWebSocket validates identity, upgrades the connection, and starts
// its read loop.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "Missing required query parameter: user_id", http.StatusBadRequest)
		return
	}
	if !types.IsValidUserID(userID) {
		http.Error(w, "Invalid user_id format", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, userID)
	h.registry.Add(wsConn)
	log.Printf("Connection opened: id=%s user=%s", wsConn.ID(), userID)

	go h.handleConnection(wsConn)
}

// handleConnection owns the connection lifecycle: heartbeat, read loop,
// event dispatch, and cleanup on close.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		// The disconnect must reach the gateway before the connection is
		// forgotten, so the departure status broadcast can still resolve
		// the rest of the group.
		h.gateway.HandleDisconnect(context.Background(), conn.ID())
		h.registry.Remove(conn.ID())
		h.limiter.Forget(conn.ID())
		_ = conn.Close()
		log.Printf("Connection closed: id=%s user=%s", conn.ID(), conn.UserID())
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on %s: %v", conn.ID(), err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		h.dispatch(conn, data)
	}
}

// dispatch parses one inbound frame and routes it to the gateway.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	if !h.limiter.Allow(conn.ID()) {
		h.sendError(conn, errors.New("rate limit exceeded"))
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(conn, errors.New("invalid message format"))
		return
	}
	if msg.Payload.ExecutionID == "" {
		h.sendError(conn, errors.New("executionId is required"))
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case types.MessageTypeHost:
		h.gateway.HandleHost(ctx, conn, msg.Payload.ExecutionID)
	case types.MessageTypeJoin:
		h.gateway.HandleJoin(ctx, conn, msg.Payload.ExecutionID)
	case types.MessageTypeNextQuestion:
		h.gateway.HandleNextQuestion(ctx, conn, msg.Payload.ExecutionID)
	case types.MessageTypeResetExecution:
		h.gateway.HandleReset(ctx, conn, msg.Payload.ExecutionID)
	default:
		h.sendError(conn, errors.New("unknown event type: "+msg.Type))
	}
}

func (h *Handler) sendError(conn *Connection, err error) {
	if writeErr := conn.WriteJSON(types.NewErrorEvent(err)); writeErr != nil {
		log.Printf("Failed to send error event to %s: %v", conn.ID(), writeErr)
	}
}
