package signal

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Roles a connection can declare when joining a room.
const (
	RoleBroadcaster = "broadcaster"
	RoleViewer      = "viewer"
)

// member is one connected WebSocket client
type member struct {
	conn   *websocket.Conn
	room   string
	role   string
	id     string // server-assigned viewer identifier
	send   chan []byte
	server *Server
}

// room holds connected members for one broadcast session
type room struct {
	code        string
	broadcaster *member
	viewers     map[string]*member
	mu          sync.RWMutex
}

// Server is the room-keyed signaling hub. One broadcaster and any number of
// viewers connect per room; the server assigns each viewer an id, notifies
// the broadcaster of joins and leaves, relays offer/answer/candidate traffic
// between the two sides, and pushes the viewer count to the whole room on
// every membership change.
type Server struct {
	rooms    map[string]*room
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewServer creates a new signaling server
func NewServer() *Server {
	return &Server{
		rooms: make(map[string]*room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}
}

// getOrCreateRoom returns existing room or creates new one
func (s *Server) getOrCreateRoom(code string) *room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = NormalizeRoomCode(code)
	if rm, exists := s.rooms[code]; exists {
		return rm
	}

	rm := &room{
		code:    code,
		viewers: make(map[string]*member),
	}
	s.rooms[code] = rm
	return rm
}

// HandleWebSocket upgrades a connection and joins it to its room. The room
// code rides in the URL path (/ws/{room-code}) and the role in the query
// string; anything other than role=broadcaster joins as a viewer.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/ws/")
	roomCode := NormalizeRoomCode(path)

	if roomCode == "" || !ValidateRoomCode(roomCode) {
		http.Error(w, "Invalid room code", http.StatusBadRequest)
		return
	}

	role := r.URL.Query().Get("role")
	if role != RoleBroadcaster {
		role = RoleViewer
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	m := &member{
		conn:   conn,
		room:   roomCode,
		role:   role,
		send:   make(chan []byte, 256),
		server: s,
	}
	if role == RoleViewer {
		m.id = uuid.NewString()
	}

	go m.writePump()
	s.register(m)
	go m.readPump()
}

// register joins a member to its room and fires the membership notifications
func (s *Server) register(m *member) {
	rm := s.getOrCreateRoom(m.room)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if m.role == RoleBroadcaster {
		if rm.broadcaster != nil && rm.broadcaster != m {
			// Broadcaster reconnecting; drop the stale connection
			log.Printf("Broadcaster rejoined room %s, closing old connection", rm.code)
			close(rm.broadcaster.send)
		}
		rm.broadcaster = m
		log.Printf("Broadcaster joined room %s", rm.code)

		// Replay joins for viewers that arrived first so the broadcaster
		// opens a negotiation for each of them
		for id := range rm.viewers {
			m.enqueue(Message{Type: TypeViewerJoined, From: id})
		}
	} else {
		rm.viewers[m.id] = m
		log.Printf("Viewer %s joined room %s (total viewers: %d)", m.id, rm.code, len(rm.viewers))

		if rm.broadcaster != nil {
			rm.broadcaster.enqueue(Message{Type: TypeViewerJoined, From: m.id})
		}
	}

	rm.pushViewerCountLocked()
}

// removeMember removes a member from its room
func (s *Server) removeMember(m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, exists := s.rooms[m.room]
	if !exists {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if m.role == RoleBroadcaster {
		if rm.broadcaster == m {
			rm.broadcaster = nil
		}
	} else if _, ok := rm.viewers[m.id]; ok {
		delete(rm.viewers, m.id)
		if rm.broadcaster != nil {
			rm.broadcaster.enqueue(Message{Type: TypeViewerLeft, From: m.id})
		}
		rm.pushViewerCountLocked()
	}

	// Clean up empty rooms
	if rm.broadcaster == nil && len(rm.viewers) == 0 {
		delete(s.rooms, m.room)
	}
}

// pushViewerCountLocked sends the current viewer count to everyone in the
// room. Callers must hold the room lock.
func (rm *room) pushViewerCountLocked() {
	msg := NewViewerCount(len(rm.viewers))
	if rm.broadcaster != nil {
		rm.broadcaster.enqueue(msg)
	}
	for _, v := range rm.viewers {
		v.enqueue(msg)
	}
}

// enqueue queues a message for delivery, dropping it if the buffer is full
func (m *member) enqueue(msg Message) {
	data, _ := json.Marshal(msg)
	select {
	case m.send <- data:
	default:
	}
}

// readPump reads messages from the WebSocket
func (m *member) readPump() {
	defer func() {
		m.server.removeMember(m)
		m.conn.Close()
	}()

	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		m.handleMessage(msg)
	}
}

// writePump sends queued messages to the WebSocket
func (m *member) writePump() {
	defer m.conn.Close()

	for data := range m.send {
		if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
}

// handleMessage relays signaling traffic between the two sides of the room
func (m *member) handleMessage(msg Message) {
	rm := m.server.getOrCreateRoom(m.room)

	if m.role == RoleBroadcaster {
		switch msg.Type {
		case TypeOffer, TypeICECandidate:
			rm.forwardToViewer(msg)
		default:
			log.Printf("Unknown message type from broadcaster: %s", msg.Type)
		}
		return
	}

	switch msg.Type {
	case TypeAnswer, TypeICECandidate:
		// Stamp the server-assigned id so the broadcaster can route it
		msg.From = m.id
		msg.To = ""
		rm.forwardToBroadcaster(msg)
	default:
		log.Printf("Unknown message type from viewer %s: %s", m.id, msg.Type)
	}
}

// forwardToViewer delivers a message to the viewer addressed by msg.To
func (rm *room) forwardToViewer(msg Message) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if v, ok := rm.viewers[msg.To]; ok {
		v.enqueue(msg)
	}
}

// forwardToBroadcaster delivers a message to the room's broadcaster
func (rm *room) forwardToBroadcaster(msg Message) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.broadcaster != nil {
		rm.broadcaster.enqueue(msg)
	}
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", s.HandleWebSocket)
	return mux
}

// Start starts the signaling HTTP server
func (s *Server) Start(addr string) error {
	log.Printf("Signal server starting on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ViewerCount returns number of viewers in a room
func (s *Server) ViewerCount(roomCode string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, exists := s.rooms[NormalizeRoomCode(roomCode)]
	if !exists {
		return 0
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.viewers)
}
