// Package rtc implements the broadcast package's capability interfaces on
// pion/webrtc: a peer connection factory with STUN/TURN configuration and
// sample-track media sources for the capture side.
package rtc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v3"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/broadcast"
)

// ICE servers for NAT traversal
var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
	{URLs: []string{"stun:stun1.l.google.com:19302"}},
	{URLs: []string{"stun:stun2.l.google.com:19302"}},
}

// ICEConfig holds ICE server configuration
type ICEConfig struct {
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool // Force TURN relay (no direct P2P)
}

// Factory creates pion-backed peer connections.
type Factory struct {
	config webrtc.Configuration
}

// NewFactory builds a factory from the ICE configuration.
func NewFactory(ice ICEConfig) *Factory {
	iceServers := make([]webrtc.ICEServer, 0)

	if !ice.ForceRelay {
		iceServers = append(iceServers, defaultICEServers...)
	}

	if ice.TURNServer != "" {
		turnServer := webrtc.ICEServer{
			URLs: []string{ice.TURNServer},
		}
		if ice.TURNUser != "" {
			turnServer.Username = ice.TURNUser
			turnServer.Credential = ice.TURNPass
			turnServer.CredentialType = webrtc.ICECredentialTypePassword
		}
		iceServers = append(iceServers, turnServer)
	}

	iceTransportPolicy := webrtc.ICETransportPolicyAll
	if ice.ForceRelay {
		iceTransportPolicy = webrtc.ICETransportPolicyRelay
	}

	return &Factory{
		config: webrtc.Configuration{
			ICEServers:         iceServers,
			ICETransportPolicy: iceTransportPolicy,
		},
	}
}

// NewPeerConnection creates one connection for a viewer.
func (f *Factory) NewPeerConnection() (broadcast.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(f.config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return &peerConn{pc: pc}, nil
}

// LocalTrack is implemented by tracks this package can attach to a pion
// connection.
type LocalTrack interface {
	TrackLocal() webrtc.TrackLocal
}

// peerConn adapts *webrtc.PeerConnection to broadcast.PeerConnection.
type peerConn struct {
	pc *webrtc.PeerConnection
}

func (c *peerConn) AddTrack(track broadcast.MediaTrack) error {
	lt, ok := track.(LocalTrack)
	if !ok {
		return fmt.Errorf("track %s is not a local webrtc track", track.ID())
	}
	if _, err := c.pc.AddTrack(lt.TrackLocal()); err != nil {
		return fmt.Errorf("add %s track: %w", track.Kind(), err)
	}
	return nil
}

// CreateOffer generates and commits the local session description, waiting
// for candidate gathering so the offer carries the full candidate set.
func (c *peerConn) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	<-webrtc.GatheringCompletePromise(c.pc)

	return c.pc.LocalDescription().SDP, nil
}

func (c *peerConn) SetRemoteAnswer(sdp string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (c *peerConn) AddICECandidate(candidate string) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(candidate), &init); err != nil {
		return fmt.Errorf("parse ICE candidate: %w", err)
	}
	return c.pc.AddICECandidate(init)
}

func (c *peerConn) OnICECandidate(fn func(string)) {
	c.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		data, err := json.Marshal(candidate.ToJSON())
		if err != nil {
			return
		}
		fn(string(data))
	})
}

func (c *peerConn) OnStateChange(fn func(broadcast.ConnState)) {
	c.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		fn(mapConnState(state))
	})
}

func mapConnState(state webrtc.PeerConnectionState) broadcast.ConnState {
	switch state {
	case webrtc.PeerConnectionStateNew:
		return broadcast.ConnStateNew
	case webrtc.PeerConnectionStateConnecting:
		return broadcast.ConnStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return broadcast.ConnStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return broadcast.ConnStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return broadcast.ConnStateFailed
	default:
		return broadcast.ConnStateClosed
	}
}

// Stats sums transport-level byte counters across the connection's
// transports.
func (c *peerConn) Stats() (broadcast.LinkStats, error) {
	var out broadcast.LinkStats
	found := false

	for _, stat := range c.pc.GetStats() {
		if ts, ok := stat.(webrtc.TransportStats); ok {
			out.BytesSent += ts.BytesSent
			out.BytesReceived += ts.BytesReceived
			found = true
		}
	}
	if !found {
		return out, errors.New("no transport stats reported")
	}
	return out, nil
}

func (c *peerConn) Close() error {
	return c.pc.Close()
}
