package interfaces

// Connection is the transport-agnostic handle the coordinator needs for one
// client: an identity and a thread-safe way to push an event to it.
type Connection interface {
	// ID returns the server-assigned connection identifier.
	ID() string

	// UserID returns the authenticated user behind this connection.
	UserID() string

	// WriteJSON sends a JSON message to the client. Implementations must be
	// safe for concurrent use; the WebSocket implementation serializes all
	// writes through a single writer goroutine.
	WriteJSON(v interface{}) error

	// Close closes the connection and releases its resources.
	Close() error
}
