package broadcast

import (
	"sync"
	"time"

	"github.com/pion/logging"
)

// SampleInterval is the default period between bandwidth samples.
const SampleInterval = 2 * time.Second

// Bandwidth is the most recently sampled aggregate transfer rate across all
// peers.
type Bandwidth struct {
	UploadKBps   float64
	DownloadKBps float64
}

// sampler periodically aggregates transport-level byte counters across every
// peer in the registry. It is a start-once, cancel-once repeating task; ticks
// run on the broadcaster's loop via post.
type sampler struct {
	interval time.Duration
	reg      *Registry
	post     func(fn func())
	onSample func(Bandwidth)
	now      func() time.Time
	log      logging.LeveledLogger

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool

	prev     map[string]LinkStats
	lastTick time.Time
}

func newSampler(interval time.Duration, reg *Registry, post func(func()), onSample func(Bandwidth), log logging.LeveledLogger) *sampler {
	if interval <= 0 {
		interval = SampleInterval
	}
	return &sampler{
		interval: interval,
		reg:      reg,
		post:     post,
		onSample: onSample,
		now:      time.Now,
		log:      log,
		prev:     make(map[string]LinkStats),
	}
}

func (s *sampler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil || s.stopped {
		return
	}
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)
}

func (s *sampler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.post(s.tick)
		case <-stop:
			return
		}
	}
}

// stop cancels the repeating task. Safe to call multiple times.
func (s *sampler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if s.stopCh != nil {
		close(s.stopCh)
	}
}

// tick reads each peer's byte counters, sums the per-peer deltas since the
// previous tick, and reports the aggregate rate. A stats failure for one
// peer is logged and excluded from this tick's sum; it never aborts the tick
// for the others.
func (s *sampler) tick() {
	now := s.now()
	elapsed := now.Sub(s.lastTick)
	if s.lastTick.IsZero() || elapsed <= 0 {
		elapsed = s.interval
	}
	s.lastTick = now

	var sent, received uint64
	seen := make(map[string]LinkStats)

	for _, p := range s.reg.Snapshot() {
		if p.Conn == nil {
			continue
		}
		stats, err := p.Conn.Stats()
		if err != nil {
			s.log.Warnf("stats for viewer %s: %v", p.ID, err)
			continue
		}
		seen[p.ID] = stats

		prev := s.prev[p.ID]
		if stats.BytesSent > prev.BytesSent {
			sent += stats.BytesSent - prev.BytesSent
		}
		if stats.BytesReceived > prev.BytesReceived {
			received += stats.BytesReceived - prev.BytesReceived
		}
	}
	s.prev = seen

	secs := elapsed.Seconds()
	s.onSample(Bandwidth{
		UploadKBps:   float64(sent) / 1024 / secs,
		DownloadKBps: float64(received) / 1024 / secs,
	})
}
