package broadcast

import (
	"time"

	"github.com/pion/logging"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/signal"
)

// engine drives the offer/answer/ICE exchange, one negotiation per viewer
// join. All handlers run on the broadcaster's task loop, so messages for a
// given peer are processed in arrival order; connection callbacks from the
// platform are re-posted onto the loop via post.
type engine struct {
	reg      *Registry
	factory  ConnectionFactory
	send     func(signal.Message)
	tracks   func() []MediaTrack
	post     func(fn func())
	onChange func()
	log      logging.LeveledLogger
}

// handleViewerJoined starts a negotiation for a newly joined viewer. Joins
// are ignored while no local media is attached: sharing must be active
// before a viewer can attach, so this is a policy no-op, not an error. A
// duplicate join for a live peer never resends the offer; only the first
// negotiation proceeds.
func (e *engine) handleViewerJoined(id string) {
	if id == "" {
		return
	}

	tracks := e.tracks()
	if len(tracks) == 0 {
		e.log.Debugf("viewer %s joined before media attached, ignoring", id)
		return
	}

	peer, created := e.reg.Upsert(id)
	peer.LastSeen = time.Now()
	if !created {
		e.log.Debugf("duplicate join for viewer %s, keeping existing negotiation", id)
		return
	}

	conn, err := e.factory.NewPeerConnection()
	if err != nil {
		e.log.Errorf("create connection for viewer %s: %v", id, err)
		e.reg.Remove(id)
		e.onChange()
		return
	}
	peer.Conn = conn

	for _, t := range tracks {
		if err := conn.AddTrack(t); err != nil {
			e.log.Errorf("attach %s track for viewer %s: %v", t.Kind(), id, err)
		}
	}

	// Each discovered candidate goes out immediately; duplicates are
	// tolerated by the remote side, so no batching or deduplication.
	conn.OnICECandidate(func(candidate string) {
		e.post(func() {
			e.send(signal.NewICECandidate(id, candidate))
		})
	})

	conn.OnStateChange(func(state ConnState) {
		e.post(func() {
			e.handleConnState(id, state)
		})
	})

	sdp, err := conn.CreateOffer()
	if err != nil {
		e.log.Errorf("create offer for viewer %s: %v", id, err)
		e.reg.Remove(id)
		e.onChange()
		return
	}

	e.send(signal.NewOffer(id, sdp))
	peer.State = StateOfferSent
	e.onChange()
}

// handleAnswer commits the viewer's session description.
func (e *engine) handleAnswer(id, sdp string) {
	peer, ok := e.reg.Get(id)
	if !ok {
		e.log.Debugf("answer from unknown viewer %s, dropping", id)
		return
	}
	if peer.State != StateOfferSent {
		e.log.Debugf("answer from viewer %s in state %s, dropping", id, peer.State)
		return
	}

	peer.LastSeen = time.Now()
	if err := peer.Conn.SetRemoteAnswer(sdp); err != nil {
		e.log.Warnf("commit answer from viewer %s: %v", id, err)
		return
	}
	peer.State = StateAnswerReceived
	e.onChange()
}

// handleCandidate applies a remote ICE candidate. Candidates for peers not
// in the registry are discarded; the join may have raced a late or duplicate
// leave.
func (e *engine) handleCandidate(id, candidate string) {
	peer, ok := e.reg.Get(id)
	if !ok {
		e.log.Debugf("candidate for unknown viewer %s, dropping", id)
		return
	}
	if peer.State < StateOfferSent {
		e.log.Debugf("candidate from viewer %s before offer, dropping", id)
		return
	}

	peer.LastSeen = time.Now()
	if err := peer.Conn.AddICECandidate(candidate); err != nil {
		e.log.Warnf("apply candidate from viewer %s: %v", id, err)
		return
	}
	if peer.State == StateAnswerReceived {
		peer.State = StateCandidatesExchanging
		e.onChange()
	}
}

// handleViewerLeft tears down the viewer's session.
func (e *engine) handleViewerLeft(id string) {
	if e.reg.Remove(id) {
		e.log.Debugf("viewer %s left", id)
		e.onChange()
	}
}

// handleConnState reacts to the connection handle's own state reports: the
// peer is marked Connected when the transport establishes, and removed on
// terminal failure.
func (e *engine) handleConnState(id string, state ConnState) {
	peer, ok := e.reg.Get(id)
	if !ok {
		return
	}

	e.log.Debugf("viewer %s connection state: %s", id, state)

	switch state {
	case ConnStateConnected:
		peer.State = StateConnected
		e.onChange()
	case ConnStateDisconnected, ConnStateFailed, ConnStateClosed:
		if e.reg.Remove(id) {
			e.onChange()
		}
	}
}
