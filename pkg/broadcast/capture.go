package broadcast

import (
	"fmt"

	"github.com/pion/logging"
)

// captureController owns the local media sources for one sharing session.
// The screen source is mandatory; the microphone is best-effort. The merged
// track set is shared read-only with every peer connection created while the
// session lasts and is only released by stop.
type captureController struct {
	screen MediaSource
	mic    MediaSource
	log    logging.LeveledLogger
}

// start acquires the screen source and, when requested, the microphone.
// Microphone acquisition failure downgrades to screen-only with a warning;
// a screen acquisition failure aborts the start. onEnded fires when the
// primary video source is revoked externally.
func (c *captureController) start(device CaptureDevice, opts CaptureOptions, onEnded func()) error {
	screen, err := device.CaptureScreen(opts)
	if err != nil {
		return fmt.Errorf("acquire screen source: %w", err)
	}
	c.screen = screen

	if opts.ShareAudio {
		mic, err := device.CaptureMicrophone()
		if err != nil {
			c.log.Warnf("microphone unavailable, continuing screen-only: %v", err)
		} else {
			c.mic = mic
		}
	}

	screen.OnEnded(onEnded)
	return nil
}

// tracks returns the merged screen and microphone tracks, or nil when no
// capture is active.
func (c *captureController) tracks() []MediaTrack {
	if c.screen == nil {
		return nil
	}
	tracks := c.screen.Tracks()
	if c.mic != nil {
		tracks = append(tracks, c.mic.Tracks()...)
	}
	return tracks
}

// stop releases every local track. Safe to call multiple times.
func (c *captureController) stop() {
	if c.screen != nil {
		c.screen.Close()
		c.screen = nil
	}
	if c.mic != nil {
		c.mic.Close()
		c.mic = nil
	}
}
