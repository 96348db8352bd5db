//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

const playbackTail = 200 * time.Millisecond

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, format Format) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = format.Channels
	deviceConfig.SampleRate = format.SampleRate

	name := "system default"
	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
		name = device.Name
	}

	c := &malgoCapture{name: name, channels: format.Channels}
	callbacks := malgo.DeviceCallbacks{
		Data: c.onData,
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	c.device = dev
	return c, nil
}

func (m *malgoContext) NewPlayback(format Format) (PlaybackDevice, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("malgo playback: invalid format %+v", format)
	}
	return &malgoPlayback{ctx: m.ctx.Context, format: format}, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device   *malgo.Device
	name     string
	channels uint32
	callback atomic.Pointer[DataCallback]
	scratch  []float32
}

func (c *malgoCapture) onData(_, in []byte, frameCount uint32) {
	cb := c.callback.Load()
	if cb == nil {
		return
	}
	n := int(frameCount * c.channels)
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	samples := c.scratch[:n]
	for i := range samples {
		off := i * 4
		if off+4 > len(in) {
			samples = samples[:i]
			break
		}
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(in[off:]))
	}
	(*cb)(samples, uint32(len(samples))/c.channels)
}

func (c *malgoCapture) Start() error {
	return c.device.Start()
}

// Stop relies on ma_device_stop waiting for the audio thread to leave the
// data callback.
func (c *malgoCapture) Stop() {
	c.device.Stop()
}

func (c *malgoCapture) Close() {
	c.device.Uninit()
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *malgoCapture) DeviceName() string {
	return c.name
}

type malgoPlayback struct {
	ctx    malgo.Context
	format Format

	mu     sync.Mutex
	device *malgo.Device
	stop   chan struct{}
	done   chan struct{}
}

func (p *malgoPlayback) Start(src Source, onEnd func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = p.format.Channels
	config.SampleRate = p.format.SampleRate

	ended := make(chan struct{})
	var endOnce sync.Once
	var scratch []float32
	channels := p.format.Channels

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			n := int(frameCount * channels)
			if cap(scratch) < n {
				scratch = make([]float32, n)
			}
			buf := scratch[:n]
			got, eof := fill(src, buf)
			for i := got; i < n; i++ {
				buf[i] = 0
			}
			for i, v := range buf {
				off := i * 4
				if off+4 > len(out) {
					break
				}
				binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
			}
			if eof {
				endOnce.Do(func() { close(ended) })
			}
		},
	}

	dev, err := malgo.InitDevice(p.ctx, config, callbacks)
	if err != nil {
		return fmt.Errorf("malgo playback init: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("malgo playback start: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	p.device, p.stop, p.done = dev, stop, done

	go func() {
		defer close(done)
		finished := false
		select {
		case <-stop:
		case <-ended:
			select {
			case <-stop:
			case <-time.After(playbackTail):
				finished = true
			}
		}
		dev.Stop()
		dev.Uninit()
		if finished && onEnd != nil {
			onEnd()
		}
	}()
	return nil
}

func (p *malgoPlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}

func (p *malgoPlayback) Close() {
	p.Stop()
}
