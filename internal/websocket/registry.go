package websocket

import (
	"sync"

	"quizlive/pkg/interfaces"
)

// Registry tracks live connections and their execution groups. It is pure
// bookkeeping: group membership is driven by the gateway, which keeps it
// consistent with session state.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]interfaces.Connection            // connectionID -> conn
	groups      map[string]map[string]interfaces.Connection // executionID -> connectionID -> conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]interfaces.Connection),
		groups:      make(map[string]map[string]interfaces.Connection),
	}
}

// Add registers a live connection.
func (r *Registry) Add(conn interfaces.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID()] = conn
}

// Remove drops a connection from the global map. Group membership is
// removed separately via LeaveGroup, routed through the directory.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, connectionID)
}

// Connection returns the live connection for an identifier.
func (r *Registry) Connection(connectionID string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[connectionID]
	return conn, ok
}

// JoinGroup adds a connection to an execution's broadcast group.
func (r *Registry) JoinGroup(executionID string, conn interfaces.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groups[executionID] == nil {
		r.groups[executionID] = make(map[string]interfaces.Connection)
	}
	r.groups[executionID][conn.ID()] = conn
}

// LeaveGroup removes a connection from an execution's broadcast group and
// cleans up empty groups.
func (r *Registry) LeaveGroup(executionID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[executionID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.groups, executionID)
	}
}

// GroupConnections returns every connection in an execution's group.
func (r *Registry) GroupConnections(executionID string) []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.groups[executionID]
	if !ok {
		return nil
	}

	connections := make([]interfaces.Connection, 0, len(members))
	for _, conn := range members {
		connections = append(connections, conn)
	}
	return connections
}

// Stats returns registry statistics for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.connections),
		"active_groups":     len(r.groups),
	}
}
