package broadcast

import "testing"

func TestRegistryUpsert(t *testing.T) {
	reg := NewRegistry()

	p1, created := reg.Upsert("viewer-1")
	if !created {
		t.Fatal("first Upsert should create the peer")
	}
	if p1.State != StateCreated {
		t.Errorf("new peer state = %s, want %s", p1.State, StateCreated)
	}

	p2, created := reg.Upsert("viewer-1")
	if created {
		t.Error("second Upsert for same id should not create")
	}
	if p1 != p2 {
		t.Error("Upsert should return the existing peer")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{}

	peer, _ := reg.Upsert("viewer-1")
	peer.Conn = conn

	if !reg.Remove("viewer-1") {
		t.Fatal("Remove should report the peer was present")
	}
	if conn.closed != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closed)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after remove, want 0", reg.Len())
	}

	// Removing again is a no-op.
	if reg.Remove("viewer-1") {
		t.Error("second Remove should report absent")
	}
	if conn.closed != 1 {
		t.Errorf("connection closed %d times after double remove, want 1", conn.closed)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()

	var conns []*fakeConn
	for _, id := range []string{"a", "b", "c"} {
		conn := &fakeConn{}
		peer, _ := reg.Upsert(id)
		peer.Conn = conn
		conns = append(conns, conn)
	}

	reg.CloseAll()

	if reg.Len() != 0 {
		t.Errorf("Len() = %d after CloseAll, want 0", reg.Len())
	}
	for i, conn := range conns {
		if conn.closed != 1 {
			t.Errorf("conn %d closed %d times, want 1", i, conn.closed)
		}
	}
}

func TestRegistryCounts(t *testing.T) {
	reg := NewRegistry()

	a, _ := reg.Upsert("a")
	reg.Upsert("b")
	c, _ := reg.Upsert("c")

	a.State = StateConnected
	c.State = StateOfferSent

	connected, total := reg.Counts()
	if connected != 1 || total != 3 {
		t.Errorf("Counts() = (%d, %d), want (1, 3)", connected, total)
	}
}
