// Package playback plays a recorded file and exposes its output level.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"memo/audio"
	"memo/log"
)

var ErrDecode = errors.New("couldn't decode audio file")

type Controller struct {
	ctx audio.Context

	mu      sync.Mutex
	device  audio.PlaybackDevice
	source  *meteredSource
	gen     uint64
	playing atomic.Bool
}

func New(ctx audio.Context) *Controller {
	return &Controller{ctx: ctx}
}

// Start plays path from the beginning, stopping any current play-through.
// onFinished runs on a device goroutine when the file plays to its end; it
// never runs for a play-through that was stopped.
func (c *Controller) Start(path string, onFinished func()) error {
	c.Stop()

	format, samples, err := audio.ReadWAV(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	dev, err := c.ctx.NewPlayback(format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	src := newMeteredSource(audio.NewSliceSource(samples), int(format.Channels))

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.device, c.source = dev, src
	c.playing.Store(true)
	c.mu.Unlock()

	if err := dev.Start(src, func() { c.finished(gen, onFinished) }); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.device, c.source = nil, nil
			c.playing.Store(false)
		}
		c.mu.Unlock()
		dev.Close()
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	log.Infof("playback started: %s (%s)", path, format.Duration(uint64(len(samples))/uint64(format.Channels)))
	return nil
}

func (c *Controller) finished(gen uint64, cb func()) {
	c.mu.Lock()
	if gen != c.gen || !c.playing.Load() {
		c.mu.Unlock()
		return
	}
	c.playing.Store(false)
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Stop halts playback without reporting completion. Safe to call when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	dev := c.device
	c.device, c.source = nil, nil
	c.gen++
	c.playing.Store(false)
	c.mu.Unlock()

	if dev != nil {
		dev.Stop()
		dev.Close()
	}
}

func (c *Controller) Playing() bool {
	return c.playing.Load()
}

// Power returns the average channel power of the most recently played
// block in dBFS, or SilenceDB when nothing is playing.
func (c *Controller) Power() float64 {
	c.mu.Lock()
	src := c.source
	c.mu.Unlock()
	if src == nil || !c.playing.Load() {
		return SilenceDB
	}
	return src.power()
}
