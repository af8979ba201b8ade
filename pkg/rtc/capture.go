package rtc

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/broadcast"
)

// sampleTrack wraps a pion sample track as a broadcast.MediaTrack.
type sampleTrack struct {
	track *webrtc.TrackLocalStaticSample
	kind  string
}

func (t *sampleTrack) ID() string                    { return t.track.ID() }
func (t *sampleTrack) Kind() string                  { return t.kind }
func (t *sampleTrack) TrackLocal() webrtc.TrackLocal { return t.track }

// Sample exposes the underlying track for the encoder feeding it.
func (t *sampleTrack) Sample() *webrtc.TrackLocalStaticSample { return t.track }

// Source is a track-bearing media source. The host's encoder writes frames
// into the tracks; this package only manages their lifecycle.
type Source struct {
	opts   broadcast.CaptureOptions
	tracks []broadcast.MediaTrack

	mu      sync.Mutex
	onEnded func()
	closed  bool
	ended   bool
}

// Tracks returns the source's local tracks.
func (s *Source) Tracks() []broadcast.MediaTrack {
	return s.tracks
}

// Options returns the capture hints the source was acquired with.
func (s *Source) Options() broadcast.CaptureOptions {
	return s.opts
}

// OnEnded registers the callback fired when the source is revoked.
func (s *Source) OnEnded(fn func()) {
	s.mu.Lock()
	s.onEnded = fn
	s.mu.Unlock()
}

// End signals that the platform revoked the source (the user stopped sharing
// from outside the application). Fires the OnEnded callback once.
func (s *Source) End() {
	s.mu.Lock()
	fn := s.onEnded
	fired := s.ended || s.closed
	s.ended = true
	s.mu.Unlock()

	if !fired && fn != nil {
		fn()
	}
}

// Close releases the source. Safe to call multiple times; a programmatic
// close does not fire OnEnded.
func (s *Source) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// VideoTrack returns the source's sample video track for the encoder, or nil
// if the source has none.
func (s *Source) VideoTrack() *webrtc.TrackLocalStaticSample {
	for _, t := range s.tracks {
		if st, ok := t.(*sampleTrack); ok && st.kind == "video" {
			return st.track
		}
	}
	return nil
}

// Device implements broadcast.CaptureDevice on pion sample tracks.
type Device struct{}

// CaptureScreen creates the screen video source. The resolution and
// frame-rate options are hints carried to the encoder.
func (Device) CaptureScreen(opts broadcast.CaptureOptions) (broadcast.MediaSource, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"screen0",
		"broadcast-screen",
	)
	if err != nil {
		return nil, fmt.Errorf("create screen track: %w", err)
	}

	return &Source{
		opts:   opts,
		tracks: []broadcast.MediaTrack{&sampleTrack{track: track, kind: "video"}},
	}, nil
}

// CaptureMicrophone creates the microphone audio source.
func (Device) CaptureMicrophone() (broadcast.MediaSource, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio0",
		"broadcast-audio",
	)
	if err != nil {
		return nil, fmt.Errorf("create microphone track: %w", err)
	}

	return &Source{
		tracks: []broadcast.MediaTrack{&sampleTrack{track: track, kind: "audio"}},
	}, nil
}
