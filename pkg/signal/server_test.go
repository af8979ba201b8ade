package signal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialRoom(t *testing.T, srv *httptest.Server, roomCode, role string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + roomCode + "?role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s as %s: %v", roomCode, role, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of the wanted type arrives, skipping
// interleaved notifications such as viewer-count pushes.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestServerRejectsInvalidRoomCode(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/not-a-room-code-at-all?role=viewer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServerNotifiesBroadcasterOfViewers(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	broadcaster := dialRoom(t, srv, "CALM-OTTER-07", RoleBroadcaster)
	viewer := dialRoom(t, srv, "CALM-OTTER-07", RoleViewer)

	joined := readUntil(t, broadcaster, TypeViewerJoined)
	if joined.From == "" {
		t.Error("viewer-joined must carry the assigned viewer id")
	}

	count := readUntil(t, viewer, TypeViewerCount)
	if n, err := count.Count(); err != nil || n != 1 {
		t.Errorf("viewer count = %d (%v), want 1", n, err)
	}

	if n := s.ViewerCount("CALM-OTTER-07"); n != 1 {
		t.Errorf("ViewerCount = %d, want 1", n)
	}
	if n := s.ViewerCount("NO-SUCH-99"); n != 0 {
		t.Errorf("ViewerCount for unknown room = %d, want 0", n)
	}
}

func TestServerRelaysNegotiation(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	broadcaster := dialRoom(t, srv, "QUICK-FROG-11", RoleBroadcaster)
	viewer := dialRoom(t, srv, "QUICK-FROG-11", RoleViewer)

	viewerID := readUntil(t, broadcaster, TypeViewerJoined).From

	// Offer goes to the addressed viewer.
	if err := broadcaster.WriteJSON(NewOffer(viewerID, "v=0 offer")); err != nil {
		t.Fatalf("send offer: %v", err)
	}
	offer := readUntil(t, viewer, TypeOffer)
	if sdp, err := offer.SDP(); err != nil || sdp != "v=0 offer" {
		t.Errorf("offer sdp = %q (%v)", sdp, err)
	}

	// Answer comes back stamped with the server-assigned id.
	if err := viewer.WriteJSON(NewAnswer("", "v=0 answer")); err != nil {
		t.Fatalf("send answer: %v", err)
	}
	answer := readUntil(t, broadcaster, TypeAnswer)
	if answer.From != viewerID {
		t.Errorf("answer from %q, want %q", answer.From, viewerID)
	}

	// Candidates flow both ways.
	if err := broadcaster.WriteJSON(NewICECandidate(viewerID, `{"candidate":"candidate:1"}`)); err != nil {
		t.Fatalf("send candidate: %v", err)
	}
	if got := readUntil(t, viewer, TypeICECandidate).Candidate(); got != `{"candidate":"candidate:1"}` {
		t.Errorf("viewer candidate = %s", got)
	}

	if err := viewer.WriteJSON(Message{Type: TypeICECandidate, Data: []byte(`{"candidate":"candidate:2"}`)}); err != nil {
		t.Fatalf("send candidate: %v", err)
	}
	candidate := readUntil(t, broadcaster, TypeICECandidate)
	if candidate.From != viewerID {
		t.Errorf("candidate from %q, want %q", candidate.From, viewerID)
	}
}

func TestServerNotifiesBroadcasterOfLeave(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	broadcaster := dialRoom(t, srv, "GOLD-HAWK-42", RoleBroadcaster)
	viewer := dialRoom(t, srv, "GOLD-HAWK-42", RoleViewer)

	viewerID := readUntil(t, broadcaster, TypeViewerJoined).From

	viewer.Close()

	left := readUntil(t, broadcaster, TypeViewerLeft)
	if left.From != viewerID {
		t.Errorf("viewer-left from %q, want %q", left.From, viewerID)
	}
	count := readUntil(t, broadcaster, TypeViewerCount)
	if n, _ := count.Count(); n != 0 {
		t.Errorf("viewer count after leave = %d, want 0", n)
	}
}

func TestServerReplaysEarlyViewers(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	// Viewers waiting before the broadcaster arrives get announced on join.
	// Reading their first count push proves each one is registered.
	v1 := dialRoom(t, srv, "DEEP-LAKE-03", RoleViewer)
	readUntil(t, v1, TypeViewerCount)
	v2 := dialRoom(t, srv, "DEEP-LAKE-03", RoleViewer)
	readUntil(t, v2, TypeViewerCount)

	broadcaster := dialRoom(t, srv, "DEEP-LAKE-03", RoleBroadcaster)

	seen := map[string]bool{}
	seen[readUntil(t, broadcaster, TypeViewerJoined).From] = true
	seen[readUntil(t, broadcaster, TypeViewerJoined).From] = true
	if len(seen) != 2 {
		t.Errorf("expected joins for 2 distinct viewers, got %d", len(seen))
	}
}
