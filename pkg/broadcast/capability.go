// Package broadcast manages the peer signaling and connection lifecycle for
// a screen-broadcast session: one control channel to a signaling server, one
// independently negotiated peer connection per viewer, aggregate connection
// quality, and periodic bandwidth sampling. Media transport and frame
// encoding are delegated to the platform capabilities defined here.
package broadcast

import "github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/signal"

// ConnState mirrors the underlying peer connection's lifecycle.
type ConnState int

const (
	ConnStateNew ConnState = iota
	ConnStateConnecting
	ConnStateConnected
	ConnStateDisconnected
	ConnStateFailed
	ConnStateClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnStateNew:
		return "new"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateConnected:
		return "connected"
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateFailed:
		return "failed"
	case ConnStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LinkStats are transport-level byte counters for one peer connection.
type LinkStats struct {
	BytesSent     uint64
	BytesReceived uint64
}

// MediaTrack is one local media track attachable to a peer connection.
type MediaTrack interface {
	ID() string
	Kind() string // "video" or "audio"
}

// MediaSource is a track-bearing capture handle. OnEnded registers the
// notification fired when the source is revoked externally (the user stopped
// sharing from the platform's own UI); Close releases the source's tracks.
type MediaSource interface {
	Tracks() []MediaTrack
	OnEnded(fn func())
	Close()
}

// CaptureOptions are hints for screen capture acquisition.
type CaptureOptions struct {
	Width      int
	Height     int
	FrameRate  int
	ShareAudio bool
}

// CaptureDevice is the platform screen/audio capture capability.
type CaptureDevice interface {
	CaptureScreen(opts CaptureOptions) (MediaSource, error)
	CaptureMicrophone() (MediaSource, error)
}

// PeerConnection is the slice of the platform peer-connection capability the
// negotiation engine drives. Implementations must tolerate Close being
// called more than once.
type PeerConnection interface {
	AddTrack(track MediaTrack) error
	CreateOffer() (sdp string, err error)
	SetRemoteAnswer(sdp string) error
	AddICECandidate(candidate string) error
	OnICECandidate(fn func(candidate string))
	OnStateChange(fn func(ConnState))
	Stats() (LinkStats, error)
	Close() error
}

// ConnectionFactory creates one PeerConnection per viewer.
type ConnectionFactory interface {
	NewPeerConnection() (PeerConnection, error)
}

// Transport is the control channel to the signaling server. signal.Client is
// the production implementation.
type Transport interface {
	Connect()
	Send(msg signal.Message)
	SetMessageHandler(fn func(signal.Message))
	SetConnectionHandler(fn func(bool))
	Close()
}
