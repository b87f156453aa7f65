package session

import (
	"sync"

	"quizlive/pkg/types"
)

// Directory tracks which execution each live connection is bound to and in
// what role. Its only job is routing a bare disconnect signal, which carries
// no execution context, to the right session without scanning every live
// session.
type Directory struct {
	mu      sync.RWMutex
	records map[string]types.ConnectionRecord
}

// NewDirectory creates an empty connection directory.
func NewDirectory() *Directory {
	return &Directory{
		records: make(map[string]types.ConnectionRecord),
	}
}

// Bind associates a connection with an execution and role, replacing any
// previous binding for the connection.
func (d *Directory) Bind(connectionID, executionID string, role types.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[connectionID] = types.ConnectionRecord{ExecutionID: executionID, Role: role}
}

// Unbind removes and returns the record for a connection. The second return
// is false if the connection was never bound.
func (d *Directory) Unbind(connectionID string) (types.ConnectionRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.records[connectionID]
	if ok {
		delete(d.records, connectionID)
	}
	return record, ok
}

// Lookup returns the current record for a connection without removing it.
func (d *Directory) Lookup(connectionID string) (types.ConnectionRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.records[connectionID]
	return record, ok
}

// Len returns the number of bound connections.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
