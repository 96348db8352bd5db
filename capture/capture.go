// Package capture drives the microphone and forwards fixed-size blocks of
// samples into a sink.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"memo/audio"
	"memo/log"
)

var ErrEngineStart = errors.New("couldn't start the audio engine")

// Sink receives captured blocks in order. It must be safe to call from the
// device goroutine.
type Sink interface {
	Append(f audio.Frame)
}

type Controller struct {
	device    audio.CaptureDevice
	format    audio.Format
	blockSize int
	sink      Sink

	mu     sync.Mutex
	active bool
	tap    *tap
}

func New(device audio.CaptureDevice, format audio.Format, blockSize int, sink Sink) *Controller {
	if blockSize <= 0 {
		blockSize = audio.TapBlockSize
	}
	return &Controller{
		device:    device,
		format:    format,
		blockSize: blockSize,
		sink:      sink,
	}
}

// Start installs the tap and starts the device. Starting an active
// controller is a no-op.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil
	}

	t := newTap(c.format, c.blockSize, c.sink)
	c.device.SetCallback(t.write)
	if err := c.device.Start(); err != nil {
		c.device.ClearCallback()
		return fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	c.tap = t
	c.active = true
	log.Infof("capture started on %s", c.device.DeviceName())
	return nil
}

// Stop halts the device, removes the tap and hands any partial block to the
// sink. Stopping an idle controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.device.Stop()
	c.device.ClearCallback()
	c.tap.flush()
	log.Infof("capture stopped, %d blocks", c.tap.blocks)
	c.tap = nil
	c.active = false
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) DeviceName() string {
	return c.device.DeviceName()
}

func (c *Controller) Format() audio.Format {
	return c.format
}

// tap regroups device callbacks of arbitrary size into blockSize frames.
type tap struct {
	format  audio.Format
	samples int // samples per block
	sink    Sink
	pending []float32
	blocks  int
}

func newTap(format audio.Format, blockSize int, sink Sink) *tap {
	n := blockSize * int(format.Channels)
	return &tap{
		format:  format,
		samples: n,
		sink:    sink,
		pending: make([]float32, 0, n),
	}
}

func (t *tap) write(samples []float32, _ uint32) {
	for len(samples) > 0 {
		room := t.samples - len(t.pending)
		take := min(room, len(samples))
		t.pending = append(t.pending, samples[:take]...)
		samples = samples[take:]
		if len(t.pending) == t.samples {
			t.emit()
		}
	}
}

func (t *tap) emit() {
	block := make([]float32, len(t.pending))
	copy(block, t.pending)
	t.pending = t.pending[:0]
	t.blocks++
	t.sink.Append(audio.Frame{Format: t.format, Samples: block})
}

func (t *tap) flush() {
	if len(t.pending) > 0 {
		t.emit()
	}
}
