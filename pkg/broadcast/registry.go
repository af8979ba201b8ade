package broadcast

import (
	"sync"
	"time"
)

// NegotiationState tracks how far one viewer's offer/answer exchange has
// progressed.
type NegotiationState int

const (
	StateCreated NegotiationState = iota
	StateOfferSent
	StateAnswerReceived
	StateCandidatesExchanging
	StateConnected
	StateClosed
)

func (s NegotiationState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOfferSent:
		return "offer-sent"
	case StateAnswerReceived:
		return "answer-received"
	case StateCandidatesExchanging:
		return "candidates-exchanging"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Peer is one remote viewer's session. The registry is its exclusive owner;
// other components receive a reference only for the duration of a call.
type Peer struct {
	ID       string
	Conn     PeerConnection
	State    NegotiationState
	LastSeen time.Time // last inbound signaling activity, diagnostics only

	closed bool
}

// close releases the owned connection handle. Idempotent: whichever path
// closes a peer first (leave event, explicit stop, terminal failure) wins
// and later calls are no-ops.
func (p *Peer) close() {
	if p.closed {
		return
	}
	p.closed = true
	p.State = StateClosed
	if p.Conn != nil {
		p.Conn.Close()
	}
}

// Registry owns the set of active peer sessions, keyed by the viewer id
// assigned by the signaling server. At most one entry exists per id.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewRegistry creates an empty peer registry
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*Peer)}
}

// Upsert returns the peer for id, creating it if absent. The second return
// reports whether a new entry was created.
func (r *Registry) Upsert(id string) (*Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.peers[id]; ok {
		return p, false
	}
	p := &Peer{ID: id, State: StateCreated, LastSeen: time.Now()}
	r.peers[id] = p
	return p, true
}

// Get returns the peer for id, if present.
func (r *Registry) Get(id string) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Remove closes the peer's connection handle and deletes the entry. It
// reports whether the peer was present; removing an absent id is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return false
	}
	p.close()
	delete(r.peers, id)
	return true
}

// CloseAll removes every entry, closing each owned connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.peers {
		p.close()
		delete(r.peers, id)
	}
}

// Len returns the number of active peer sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Counts returns the connected and total peer counts for quality
// classification.
func (r *Registry) Counts() (connected, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.peers {
		if p.State == StateConnected {
			connected++
		}
	}
	return connected, len(r.peers)
}

// Snapshot returns the current peers. Callers must not retain the references
// past the call they were fetched for.
func (r *Registry) Snapshot() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	return peers
}
