//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
)

const (
	recordLatency   = 0.05
	playbackLatency = 0.1
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("memo"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sources {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, format Format) (CaptureDevice, error) {
	if format.Channels == 0 || format.Channels > 2 {
		return nil, fmt.Errorf("pulse capture: unsupported channel count %d", format.Channels)
	}
	return &pulseCapture{
		client: p.client,
		device: device,
		format: format,
	}, nil
}

func (p *pulseContext) NewPlayback(format Format) (PlaybackDevice, error) {
	if format.Channels == 0 || format.Channels > 2 {
		return nil, fmt.Errorf("pulse playback: unsupported channel count %d", format.Channels)
	}
	return &pulsePlayback{client: p.client, format: format}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client   *pulse.Client
	device   *DeviceInfo
	format   Format
	callback atomic.Pointer[DataCallback]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := int(c.format.Channels)
	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		if len(buf) == 0 {
			return 0, nil
		}
		if cb := c.callback.Load(); cb != nil {
			(*cb)(buf, uint32(len(buf)/channels))
		}
		return len(buf), nil
	})

	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(int(c.format.SampleRate)),
		pulse.RecordLatency(recordLatency),
	}
	if channels == 2 {
		opts = append(opts, pulse.RecordStereo)
	} else {
		opts = append(opts, pulse.RecordMono)
	}
	if c.device != nil {
		source, err := c.client.SourceByID(c.device.ID)
		if err == nil && source != nil {
			opts = append(opts, pulse.RecordSource(source))
		}
	}

	stream, err := c.client.NewRecord(writer, opts...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go func() {
		defer close(done)
		stream.Start()
		<-stop
		stream.Stop()
		stream.Close()
	}()

	return nil
}

// Stop returns once the record stream is closed, so no callback runs after it.
func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *pulseCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}

type pulsePlayback struct {
	client *pulse.Client
	format Format

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *pulsePlayback) Start(src Source, onEnd func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ended := make(chan struct{})
	var endOnce sync.Once
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		n, eof := fill(src, buf)
		if eof {
			endOnce.Do(func() { close(ended) })
			if n == 0 {
				return 0, pulse.EndOfData
			}
		}
		return n, nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackSampleRate(int(p.format.SampleRate)),
		pulse.PlaybackLatency(playbackLatency),
	}
	if p.format.Channels == 2 {
		opts = append(opts, pulse.PlaybackStereo)
	} else {
		opts = append(opts, pulse.PlaybackMono)
	}

	stream, err := p.client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done

	go func() {
		defer close(done)
		stream.Start()
		finished := false
		select {
		case <-stop:
		case <-ended:
			// the server still holds up to one latency window of audio
			select {
			case <-stop:
			case <-time.After(2 * time.Duration(playbackLatency*float64(time.Second))):
				finished = true
			}
		}
		stream.Stop()
		stream.Close()
		if finished && onEnd != nil {
			onEnd()
		}
	}()
	return nil
}

func (p *pulsePlayback) Stop() {
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

func (p *pulsePlayback) Close() {
	p.Stop()
}
