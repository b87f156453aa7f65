package broadcast

import (
	"log"

	"quizlive/internal/session"
	"quizlive/pkg/interfaces"
	"quizlive/pkg/types"
)

// Registry resolves connection identifiers and group membership. The
// WebSocket registry implements it; tests use in-memory fakes.
type Registry interface {
	// Connection returns the live connection for an identifier.
	Connection(connectionID string) (interfaces.Connection, bool)

	// GroupConnections returns every connection in an execution's group.
	GroupConnections(executionID string) []interfaces.Connection
}

// Coordinator is pure dispatch: it resolves a transition's outbound message
// set against group membership and hands events to the transport. No
// business logic lives here.
type Coordinator struct {
	registry Registry
}

// NewCoordinator creates a broadcast coordinator over a connection registry.
func NewCoordinator(registry Registry) *Coordinator {
	return &Coordinator{registry: registry}
}

// SendToConnection delivers an event to a single connection. Delivery
// failures are logged and swallowed; the recipient may already be gone.
func (c *Coordinator) SendToConnection(connectionID string, event types.Event) {
	conn, ok := c.registry.Connection(connectionID)
	if !ok {
		log.Printf("Dropping %s event for unknown connection %s", event.Type, connectionID)
		return
	}
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("Failed to deliver %s event to %s: %v", event.Type, connectionID, err)
	}
}

// SendToGroup delivers an event to every connection in an execution's group,
// optionally excluding one connection. A failure for one recipient never
// aborts delivery to the rest.
func (c *Coordinator) SendToGroup(executionID string, event types.Event, excluding string) {
	for _, conn := range c.registry.GroupConnections(executionID) {
		if excluding != "" && conn.ID() == excluding {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Failed to deliver %s event to %s in group %s: %v",
				event.Type, conn.ID(), executionID, err)
		}
	}
}

// Dispatch fans out a transition's outbound message set for one execution.
func (c *Coordinator) Dispatch(executionID string, outbounds []session.Outbound) {
	for _, outbound := range outbounds {
		if outbound.To == "" {
			c.SendToGroup(executionID, outbound.Event, "")
		} else {
			c.SendToConnection(outbound.To, outbound.Event)
		}
	}
}
