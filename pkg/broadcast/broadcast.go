package broadcast

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/signal"
)

var (
	// ErrAlreadySharing is returned by Start while a session is active.
	ErrAlreadySharing = errors.New("broadcast already sharing")

	// ErrCaptureDenied marks a capture permission failure. Capture devices
	// wrap it so callers can distinguish "never started" from transient
	// faults.
	ErrCaptureDenied = errors.New("screen capture denied")
)

// Options configure one sharing session.
type Options struct {
	// Endpoint is the signaling WebSocket URL, carrying the room identifier.
	Endpoint string
	Capture  CaptureOptions
}

// State is a snapshot of the broadcast session. It is created when sharing
// starts and zeroed when sharing stops.
type State struct {
	Sharing     bool
	Quality     Quality
	ViewerCount int
	Bandwidth   Bandwidth
}

// Config wires the Broadcaster's capabilities.
type Config struct {
	Device  CaptureDevice
	Factory ConnectionFactory

	// Dial opens the control channel for an endpoint. Nil means a
	// signal.Client.
	Dial func(endpoint string) Transport

	// LoggerFactory defaults to pion's.
	LoggerFactory logging.LoggerFactory

	// SampleInterval overrides the bandwidth sampling period (tests).
	SampleInterval time.Duration
}

// session holds the per-share task loop. Replaced wholesale on each Start so
// a stopped session's timers and callbacks stay inert.
type session struct {
	tasks chan func()
	done  chan struct{}
}

// Broadcaster is the top-level controller for one screen-broadcast session.
// All signaling handlers, connection state notifications and timer ticks are
// serialized onto a single task loop, so each handler runs as a discrete,
// non-preemptible step. Stop is the single cancellation point.
type Broadcaster struct {
	device     CaptureDevice
	factory    ConnectionFactory
	dial       func(string) Transport
	sampleIntv time.Duration
	log        logging.LeveledLogger
	loggerFac  logging.LoggerFactory

	mu        sync.Mutex
	state     State
	sess      *session
	transport Transport
	capture   *captureController
	reg       *Registry
	eng       *engine
	bw        *sampler

	onConnection  func(bool)
	onViewerCount func(int)
	onQuality     func(Quality)
	onBandwidth   func(Bandwidth)
}

// New creates a Broadcaster from its capability wiring.
func New(cfg Config) (*Broadcaster, error) {
	if cfg.Device == nil {
		return nil, errors.New("broadcast: capture device is required")
	}
	if cfg.Factory == nil {
		return nil, errors.New("broadcast: connection factory is required")
	}

	dial := cfg.Dial
	if dial == nil {
		dial = func(endpoint string) Transport { return signal.NewClient(endpoint) }
	}
	lf := cfg.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	return &Broadcaster{
		device:     cfg.Device,
		factory:    cfg.Factory,
		dial:       dial,
		sampleIntv: cfg.SampleInterval,
		log:        lf.NewLogger("broadcast"),
		loggerFac:  lf,
	}, nil
}

// OnConnectionChange registers the observer fired on control channel
// open/close. Register observers before Start.
func (b *Broadcaster) OnConnectionChange(fn func(bool)) { b.onConnection = fn }

// OnViewerCountChange registers the observer fired whenever the server
// reports a new viewer count.
func (b *Broadcaster) OnViewerCountChange(fn func(int)) { b.onViewerCount = fn }

// OnQualityChange registers the observer fired when the aggregate quality
// classification changes.
func (b *Broadcaster) OnQualityChange(fn func(Quality)) { b.onQuality = fn }

// OnBandwidthChange registers the observer fired on every bandwidth sample.
func (b *Broadcaster) OnBandwidthChange(fn func(Bandwidth)) { b.onBandwidth = fn }

// State returns a snapshot of the current session.
func (b *Broadcaster) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start acquires local media and connects the control channel. A capture
// permission failure aborts the start: sharing stays false and no transport
// connection is attempted. Transport failures after a successful start are
// absorbed by the channel's reconnect loop.
func (b *Broadcaster) Start(opts Options) error {
	b.mu.Lock()
	if b.state.Sharing {
		b.mu.Unlock()
		return ErrAlreadySharing
	}
	b.mu.Unlock()

	capture := &captureController{log: b.loggerFac.NewLogger("capture")}
	if err := capture.start(b.device, opts.Capture, b.Stop); err != nil {
		return fmt.Errorf("start broadcast: %w", err)
	}

	sess := &session{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}

	reg := NewRegistry()
	transport := b.dial(opts.Endpoint)

	eng := &engine{
		reg:      reg,
		factory:  b.factory,
		send:     transport.Send,
		tracks:   capture.tracks,
		post:     b.post,
		onChange: b.recomputeQuality,
		log:      b.loggerFac.NewLogger("negotiate"),
	}

	bw := newSampler(b.sampleIntv, reg, b.post, b.setBandwidth, b.loggerFac.NewLogger("bandwidth"))

	b.mu.Lock()
	b.sess = sess
	b.capture = capture
	b.reg = reg
	b.eng = eng
	b.transport = transport
	b.bw = bw
	b.state = State{Sharing: true, Quality: QualityDisconnected}
	b.mu.Unlock()

	go b.run(sess)

	transport.SetMessageHandler(func(msg signal.Message) {
		b.post(func() { b.dispatch(msg) })
	})
	transport.SetConnectionHandler(func(up bool) {
		if b.onConnection != nil {
			b.onConnection(up)
		}
	})
	transport.Connect()
	bw.start()

	b.log.Infof("broadcast started, signaling via %s", opts.Endpoint)
	return nil
}

// Stop tears the session down: local tracks, every peer, the control
// channel, the bandwidth sampler, and the task loop. The state snapshot is
// reset to its zeroed, disconnected values. Safe to call multiple times and
// from any state.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.state.Sharing && b.sess == nil {
		b.mu.Unlock()
		return
	}
	sess := b.sess
	capture := b.capture
	reg := b.reg
	transport := b.transport
	bw := b.bw
	b.sess = nil
	b.capture = nil
	b.reg = nil
	b.eng = nil
	b.transport = nil
	b.bw = nil
	b.state = State{}
	b.mu.Unlock()

	if bw != nil {
		bw.stop()
	}
	if sess != nil {
		close(sess.done)
	}
	if capture != nil {
		capture.stop()
	}
	if reg != nil {
		reg.CloseAll()
	}
	if transport != nil {
		transport.Close()
	}

	b.log.Infof("broadcast stopped")
}

// run executes posted tasks one at a time until the session ends.
func (b *Broadcaster) run(sess *session) {
	for {
		select {
		case fn := <-sess.tasks:
			fn()
		case <-sess.done:
			return
		}
	}
}

// post schedules fn on the current session's task loop. Tasks posted after
// Stop are dropped.
func (b *Broadcaster) post(fn func()) {
	b.mu.Lock()
	sess := b.sess
	b.mu.Unlock()
	if sess == nil {
		return
	}
	select {
	case sess.tasks <- fn:
	case <-sess.done:
	}
}

// dispatch routes one inbound signaling message by type. Unknown types are
// logged and ignored, never fatal.
func (b *Broadcaster) dispatch(msg signal.Message) {
	b.mu.Lock()
	eng := b.eng
	b.mu.Unlock()
	if eng == nil {
		return
	}

	switch msg.Type {
	case signal.TypeViewerJoined:
		eng.handleViewerJoined(msg.From)
	case signal.TypeViewerLeft:
		eng.handleViewerLeft(msg.From)
	case signal.TypeAnswer:
		sdp, err := msg.SDP()
		if err != nil {
			b.log.Warnf("malformed answer from %s: %v", msg.From, err)
			return
		}
		eng.handleAnswer(msg.From, sdp)
	case signal.TypeICECandidate:
		eng.handleCandidate(msg.From, msg.Candidate())
	case signal.TypeViewerCount:
		count, err := msg.Count()
		if err != nil {
			b.log.Warnf("malformed viewer count: %v", err)
			return
		}
		b.setViewerCount(count)
	default:
		b.log.Warnf("ignoring unknown signal type %q", msg.Type)
	}
}

// recomputeQuality reclassifies the broadcast quality from the registry's
// current peer counts. Called synchronously after every peer add, remove,
// or state transition.
func (b *Broadcaster) recomputeQuality() {
	b.mu.Lock()
	reg := b.reg
	if reg == nil {
		b.mu.Unlock()
		return
	}
	connected, total := reg.Counts()
	q := ClassifyQuality(connected, total)
	changed := q != b.state.Quality
	b.state.Quality = q
	fn := b.onQuality
	b.mu.Unlock()

	if changed && fn != nil {
		fn(q)
	}
}

func (b *Broadcaster) setViewerCount(count int) {
	b.mu.Lock()
	if !b.state.Sharing {
		b.mu.Unlock()
		return
	}
	changed := count != b.state.ViewerCount
	b.state.ViewerCount = count
	fn := b.onViewerCount
	b.mu.Unlock()

	if changed && fn != nil {
		fn(count)
	}
}

func (b *Broadcaster) setBandwidth(bw Bandwidth) {
	b.mu.Lock()
	if !b.state.Sharing {
		b.mu.Unlock()
		return
	}
	b.state.Bandwidth = bw
	fn := b.onBandwidth
	b.mu.Unlock()

	if fn != nil {
		fn(bw)
	}
}
