package broadcast

import (
	"sync"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/signal"
)

type fakeTrack struct {
	id   string
	kind string
}

func (t fakeTrack) ID() string   { return t.id }
func (t fakeTrack) Kind() string { return t.kind }

type fakeSource struct {
	tracks  []MediaTrack
	onEnded func()
	closed  int
}

func (s *fakeSource) Tracks() []MediaTrack { return s.tracks }
func (s *fakeSource) OnEnded(fn func())    { s.onEnded = fn }
func (s *fakeSource) Close()               { s.closed++ }

type fakeDevice struct {
	screenErr error
	micErr    error
	screen    *fakeSource
	mic       *fakeSource
}

func (d *fakeDevice) CaptureScreen(opts CaptureOptions) (MediaSource, error) {
	if d.screenErr != nil {
		return nil, d.screenErr
	}
	d.screen = &fakeSource{tracks: []MediaTrack{fakeTrack{id: "screen0", kind: "video"}}}
	return d.screen, nil
}

func (d *fakeDevice) CaptureMicrophone() (MediaSource, error) {
	if d.micErr != nil {
		return nil, d.micErr
	}
	d.mic = &fakeSource{tracks: []MediaTrack{fakeTrack{id: "audio0", kind: "audio"}}}
	return d.mic, nil
}

type fakeConn struct {
	tracks      []MediaTrack
	remoteSDP   string
	candidates  []string
	onCandidate func(string)
	onState     func(ConnState)
	stats       LinkStats
	statsErr    error
	offerErr    error
	closed      int
}

func (c *fakeConn) AddTrack(t MediaTrack) error {
	c.tracks = append(c.tracks, t)
	return nil
}

func (c *fakeConn) CreateOffer() (string, error) {
	if c.offerErr != nil {
		return "", c.offerErr
	}
	return "v=0 fake-offer", nil
}

func (c *fakeConn) SetRemoteAnswer(sdp string) error {
	c.remoteSDP = sdp
	return nil
}

func (c *fakeConn) AddICECandidate(candidate string) error {
	c.candidates = append(c.candidates, candidate)
	return nil
}

func (c *fakeConn) OnICECandidate(fn func(string)) { c.onCandidate = fn }
func (c *fakeConn) OnStateChange(fn func(ConnState)) { c.onState = fn }

func (c *fakeConn) Stats() (LinkStats, error) {
	return c.stats, c.statsErr
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

type fakeFactory struct {
	err   error
	conns []*fakeConn
}

func (f *fakeFactory) NewPeerConnection() (PeerConnection, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{}
	f.conns = append(f.conns, c)
	return c, nil
}

// last returns the most recently created connection.
func (f *fakeFactory) last() *fakeConn {
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

type fakeTransport struct {
	mu        sync.Mutex
	sent      []signal.Message
	onMessage func(signal.Message)
	onConn    func(bool)
	connects  int
	closes    int
}

func (t *fakeTransport) Connect() {
	t.mu.Lock()
	t.connects++
	fn := t.onConn
	t.mu.Unlock()
	if fn != nil {
		fn(true)
	}
}

func (t *fakeTransport) Send(msg signal.Message) {
	t.mu.Lock()
	t.sent = append(t.sent, msg)
	t.mu.Unlock()
}

func (t *fakeTransport) SetMessageHandler(fn func(signal.Message)) {
	t.mu.Lock()
	t.onMessage = fn
	t.mu.Unlock()
}

func (t *fakeTransport) SetConnectionHandler(fn func(bool)) {
	t.mu.Lock()
	t.onConn = fn
	t.mu.Unlock()
}

func (t *fakeTransport) Close() {
	t.mu.Lock()
	t.closes++
	t.mu.Unlock()
}

// deliver hands an inbound message to the registered handler.
func (t *fakeTransport) deliver(msg signal.Message) {
	t.mu.Lock()
	fn := t.onMessage
	t.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// sentByType returns the sent messages matching type.
func (t *fakeTransport) sentByType(msgType string) []signal.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []signal.Message
	for _, m := range t.sent {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}
