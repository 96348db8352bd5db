package audio

import (
	"errors"
	"sync"
	"time"
)

const fakeChunkFrames = 1024

// FakeContext replays a fixed clip as microphone input and consumes playback
// without touching a sound server. Errors set on it are returned by the
// devices it creates afterwards.
type FakeContext struct {
	format   Format
	samples  []float32
	realtime bool

	// ManualPlayback holds every playback open after its first block until
	// Finish is called.
	ManualPlayback   bool
	CaptureStartErr  error
	PlaybackStartErr error

	mu        sync.Mutex
	capture   *FakeCapture
	playbacks []*FakePlayback
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	format, samples, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return NewFakeContextFromSamples(format, samples, realtime), nil
}

func NewFakeContextFromSamples(format Format, samples []float32, realtime bool) *FakeContext {
	return &FakeContext{format: format, samples: samples, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

// Format returns the clip format. Captures are always delivered in it.
func (f *FakeContext) Format() Format { return f.format }

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ Format) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capture = &FakeCapture{
		ctx:       f,
		audioDone: make(chan struct{}),
	}
	return f.capture, nil
}

func (f *FakeContext) NewPlayback(format Format) (PlaybackDevice, error) {
	if !format.Valid() {
		return nil, errors.New("fake playback: invalid format")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &FakePlayback{
		format:   format,
		realtime: f.realtime,
		manual:   f.ManualPlayback,
		startErr: f.PlaybackStartErr,
	}
	f.playbacks = append(f.playbacks, p)
	return p, nil
}

// LastCapture returns the most recently created capture device.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.capture
}

// LastPlayback returns the most recently created playback device, or nil.
func (f *FakeContext) LastPlayback() *FakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.playbacks) == 0 {
		return nil
	}
	return f.playbacks[len(f.playbacks)-1]
}

// Playbacks returns how many playback devices were created.
func (f *FakeContext) Playbacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.playbacks)
}

type FakeCapture struct {
	ctx *FakeContext

	mu        sync.Mutex
	cb        DataCallback
	running   bool
	starts    int
	audioDone chan struct{}
	stopCh    chan struct{}
	feedDone  chan struct{}
}

// AudioDone is closed once the current take has delivered the whole clip.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

func (f *FakeCapture) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	samples := f.ctx.samples
	chunk := fakeChunkFrames * int(f.ctx.format.Channels)
	end := min(pos+chunk, len(samples))
	buf := make([]float32, end-pos)
	copy(buf, samples[pos:end])
	cb(buf, uint32(len(buf)/int(f.ctx.format.Channels)))
	return end
}

func (f *FakeCapture) Start() error {
	if err := f.ctx.CaptureStartErr; err != nil {
		return err
	}

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return errors.New("fake capture already running")
	}
	f.running = true
	f.starts++
	stopCh := make(chan struct{})
	feedDone := make(chan struct{})
	audioDone := f.audioDone
	f.stopCh, f.feedDone = stopCh, feedDone
	f.mu.Unlock()

	samples := f.ctx.samples

	if !f.ctx.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(samples); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(audioDone)
		close(feedDone)
		return nil
	}

	interval := f.ctx.format.Duration(fakeChunkFrames)
	go func() {
		defer close(feedDone)
		pos := 0
		for pos < len(samples) {
			if cb := f.callback(); cb != nil {
				pos = f.feedChunk(cb, pos)
			}
			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}
		}
		close(audioDone)
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	stopCh, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()

	close(stopCh)
	<-feedDone

	f.mu.Lock()
	select {
	case <-f.audioDone:
		f.audioDone = make(chan struct{})
	default:
	}
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {
	f.Stop()
}

type FakePlayback struct {
	format   Format
	realtime bool
	manual   bool
	startErr error

	mu       sync.Mutex
	src      Source
	onEnd    func()
	started  bool
	stopped  bool
	finished bool
	consumed int
	stopCh   chan struct{}
	done     chan struct{}
}

func (p *FakePlayback) Format() Format { return p.format }

// Consumed returns how many samples were pulled from the source.
func (p *FakePlayback) Consumed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consumed
}

func (p *FakePlayback) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *FakePlayback) Start(src Source, onEnd func()) error {
	if p.startErr != nil {
		return p.startErr
	}
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("fake playback already started")
	}
	p.started = true
	p.src, p.onEnd = src, onEnd
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	p.mu.Unlock()

	if p.manual {
		// pull one block like a device filling its first period
		n, _ := fill(src, make([]float32, fakeChunkFrames*int(p.format.Channels)))
		p.mu.Lock()
		p.consumed += n
		p.mu.Unlock()
		close(p.done)
		return nil
	}

	go func() {
		defer close(p.done)
		chunk := make([]float32, fakeChunkFrames*int(p.format.Channels))
		interval := p.format.Duration(fakeChunkFrames)
		for {
			n, eof := fill(src, chunk)
			p.mu.Lock()
			p.consumed += n
			p.mu.Unlock()
			if eof {
				break
			}
			if p.realtime {
				select {
				case <-p.stopCh:
					return
				case <-time.After(interval):
				}
			} else {
				select {
				case <-p.stopCh:
					return
				default:
				}
			}
		}
		p.end()
	}()
	return nil
}

// Finish drains the source of a manual playback and reports the end.
func (p *FakePlayback) Finish() {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()
	if src == nil {
		return
	}
	chunk := make([]float32, fakeChunkFrames*int(p.format.Channels))
	for {
		n, eof := fill(src, chunk)
		p.mu.Lock()
		p.consumed += n
		p.mu.Unlock()
		if eof || n == 0 {
			break
		}
	}
	p.end()
}

func (p *FakePlayback) end() {
	p.mu.Lock()
	if p.stopped || p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	onEnd := p.onEnd
	p.mu.Unlock()
	if onEnd != nil {
		onEnd()
	}
}

func (p *FakePlayback) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()

	close(stopCh)
	<-done
}

func (p *FakePlayback) Close() {
	p.Stop()
}
