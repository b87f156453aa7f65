package websocket

import (
	"testing"
)

// stubConn satisfies interfaces.Connection without a live socket.
type stubConn struct {
	id string
}

func (s *stubConn) ID() string                    { return s.id }
func (s *stubConn) UserID() string                { return "user-" + s.id }
func (s *stubConn) WriteJSON(v interface{}) error { return nil }
func (s *stubConn) Close() error                  { return nil }

func TestRegistry_AddAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{id: "conn-1"}

	r.Add(conn)

	got, ok := r.Connection("conn-1")
	if !ok {
		t.Fatal("connection not found after Add")
	}
	if got.ID() != "conn-1" {
		t.Errorf("wrong connection returned: %s", got.ID())
	}

	if _, ok := r.Connection("conn-2"); ok {
		t.Error("lookup of unknown connection succeeded")
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Add(&stubConn{id: "conn-1"})

	r.Remove("conn-1")

	if _, ok := r.Connection("conn-1"); ok {
		t.Error("connection still present after Remove")
	}
	r.Remove("conn-1") // idempotent
}

func TestRegistry_GroupMembership(t *testing.T) {
	r := NewRegistry()
	conn1 := &stubConn{id: "conn-1"}
	conn2 := &stubConn{id: "conn-2"}
	r.Add(conn1)
	r.Add(conn2)

	r.JoinGroup("exec-1", conn1)
	r.JoinGroup("exec-1", conn2)
	r.JoinGroup("exec-2", conn1)

	if got := len(r.GroupConnections("exec-1")); got != 2 {
		t.Errorf("exec-1 group size = %d, want 2", got)
	}
	if got := len(r.GroupConnections("exec-2")); got != 1 {
		t.Errorf("exec-2 group size = %d, want 1", got)
	}
	if got := r.GroupConnections("exec-none"); got != nil {
		t.Errorf("unknown group should be nil, got %v", got)
	}
}

func TestRegistry_LeaveGroupCleansEmptyGroups(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{id: "conn-1"}
	r.Add(conn)
	r.JoinGroup("exec-1", conn)

	r.LeaveGroup("exec-1", "conn-1")

	if got := r.GroupConnections("exec-1"); got != nil {
		t.Errorf("empty group not cleaned up: %v", got)
	}
	if stats := r.Stats(); stats["active_groups"] != 0 {
		t.Errorf("active_groups = %d, want 0", stats["active_groups"])
	}

	// Leaving an unknown group must not panic.
	r.LeaveGroup("exec-missing", "conn-1")
}

func TestRegistry_Stats(t *testing.T) {
	r := NewRegistry()
	conn1 := &stubConn{id: "conn-1"}
	conn2 := &stubConn{id: "conn-2"}
	r.Add(conn1)
	r.Add(conn2)
	r.JoinGroup("exec-1", conn1)

	stats := r.Stats()
	if stats["total_connections"] != 2 {
		t.Errorf("total_connections = %d, want 2", stats["total_connections"])
	}
	if stats["active_groups"] != 1 {
		t.Errorf("active_groups = %d, want 1", stats["active_groups"])
	}
}
