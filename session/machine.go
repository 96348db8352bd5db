package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"memo/audio"
	"memo/encoder"
	"memo/log"
	"memo/meter"
	"memo/permission"
	"memo/timer"
)

// Recorder is the capture side as the machine sees it.
type Recorder interface {
	Start() error
	Stop()
	Active() bool
}

// Player is the playback side as the machine sees it. onFinished may be
// called from any goroutine.
type Player interface {
	Start(path string, onFinished func()) error
	Stop()
	Power() float64
	Playing() bool
}

type Materializer interface {
	Materialize(frames []audio.Frame) (encoder.File, error)
	Path() string
}

type Config struct {
	Capture    Recorder
	Playback   Player
	Buffer     *audio.FrameBuffer
	Files      Materializer
	Permission permission.Provider
	Shell      Shell
	Clock      clockwork.Clock

	TimerInterval time.Duration
	MeterInterval time.Duration
	MeterGain     float64
	IdleScale     float64
}

type command struct {
	trigger Trigger
	reply   chan error
}

// Machine serializes taps and playback completion on the goroutine running
// Run. State may be read from anywhere.
type Machine struct {
	capture Recorder
	player  Player
	buffer  *audio.FrameBuffer
	files   Materializer
	perm    permission.Provider
	shell   Shell
	timer   *timer.Timer
	sampler *meter.Sampler

	state    atomic.Int32
	commands chan command
	finished chan uint64
	done     chan struct{}
	runOnce  sync.Once

	// owned by the control loop
	take             int
	materializedTake int
	duration         *time.Duration
	playID           uint64
	timerMode        timer.Mode
	plays            int
}

func New(cfg Config) *Machine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Shell == nil {
		cfg.Shell = NopShell{}
	}
	if cfg.Permission == nil {
		cfg.Permission = permission.NewStatic(permission.Granted)
	}
	if cfg.Buffer == nil {
		cfg.Buffer = audio.NewFrameBuffer()
	}
	if cfg.MeterGain == 0 {
		cfg.MeterGain = meter.DefaultGain
	}
	if cfg.IdleScale == 0 {
		cfg.IdleScale = meter.DefaultIdleScale
	}
	return &Machine{
		capture:  cfg.Capture,
		player:   cfg.Playback,
		buffer:   cfg.Buffer,
		files:    cfg.Files,
		perm:     cfg.Permission,
		shell:    cfg.Shell,
		timer:    timer.New(cfg.Clock, cfg.TimerInterval),
		sampler:  meter.NewSampler(cfg.Clock, cfg.MeterInterval, cfg.MeterGain, cfg.IdleScale),
		commands: make(chan command),
		finished: make(chan uint64),
		done:     make(chan struct{}),
	}
}

func (m *Machine) State() State {
	return State(m.state.Load())
}

// Record submits a record tap and waits until it has been applied.
func (m *Machine) Record(ctx context.Context) error {
	return m.submit(ctx, TriggerRecord)
}

// Play submits a play tap and waits until it has been applied.
func (m *Machine) Play(ctx context.Context) error {
	return m.submit(ctx, TriggerPlay)
}

func (m *Machine) submit(ctx context.Context, t Trigger) error {
	reply := make(chan error, 1)
	select {
	case m.commands <- command{trigger: t, reply: reply}:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the control loop. It returns when ctx is cancelled, after stopping
// every component.
func (m *Machine) Run(ctx context.Context) error {
	started := false
	m.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("session already running")
	}
	defer close(m.done)

	m.shell.SetRecordIcon(IconRecord)
	m.shell.SetTimerVisible(false)
	m.shell.SetAmplitude(0)
	m.shell.StateChanged(m.State())

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case cmd := <-m.commands:
			cmd.reply <- m.handle(ctx, cmd.trigger)
		case id := <-m.finished:
			if id == m.playID {
				m.handle(ctx, TriggerPlaybackFinished)
			}
		case <-m.timer.C():
			m.renderTimer()
		case <-m.sampler.C():
			m.renderLevel()
		}
	}
}

func (m *Machine) shutdown() {
	m.player.Stop()
	m.capture.Stop()
	m.timer.Stop()
	m.sampler.Stop()
	log.SessionEnd(m.take, m.plays)
}

func (m *Machine) handle(ctx context.Context, t Trigger) error {
	from := m.State()
	facts := Facts{Materialized: m.take > 0 && m.materializedTake == m.take}
	if t == TriggerRecord && from == NotInitiated {
		facts.PermissionGranted = permission.Resolve(ctx, m.perm)
	}

	to, effects := Transition(from, t, facts)
	var u undo
	err := m.apply(effects, &u)
	if u.failed {
		to = from
		if from == Playing && u.playbackStopped {
			to = PlayingStopped
		}
	}

	if to != from {
		m.state.Store(int32(to))
		m.shell.StateChanged(to)
	}
	log.Transition(from.String(), to.String(), t.String())
	return err
}

// undo records what a command changed so a failing effect can be reverted.
type undo struct {
	failed          bool
	cleared         bool
	frames          []audio.Frame
	timerStarted    bool
	samplerStarted  bool
	playbackStopped bool
}

func (m *Machine) apply(effects []Effect, u *undo) error {
	var result error
	for _, e := range effects {
		if e.Kind == EffectSurface {
			result = &Error{Kind: e.Err}
			m.surface(result)
			continue
		}
		if err := m.run(e, u); err != nil {
			u.failed = true
			m.rollback(u)
			m.surface(err)
			return err
		}
	}
	return result
}

func (m *Machine) run(e Effect, u *undo) error {
	switch e.Kind {
	case EffectStopPlayback:
		if m.player.Playing() || m.State() == Playing {
			u.playbackStopped = true
		}
		m.player.Stop()
		m.playID++
	case EffectStopCapture:
		m.capture.Stop()
	case EffectClearBuffer:
		u.frames = m.buffer.Snapshot()
		u.cleared = true
		m.buffer.Clear()
	case EffectStartCapture:
		if err := m.capture.Start(); err != nil {
			return &Error{Kind: EngineStartFailed, Err: err}
		}
		m.take++
		m.duration = nil
	case EffectStartTimer:
		m.timerMode = e.Mode
		m.timer.Start()
		u.timerStarted = true
		m.shell.SetTimerVisible(true)
		m.renderTimer()
	case EffectStopTimer:
		m.timer.Stop()
		m.shell.SetTimerVisible(false)
	case EffectStartSampler:
		m.sampler.Start()
		u.samplerStarted = true
	case EffectStopSampler:
		m.sampler.Stop()
		m.shell.SetAmplitude(0)
	case EffectMaterialize:
		if m.materializedTake == m.take {
			return nil
		}
		f, err := m.files.Materialize(m.buffer.Snapshot())
		if err != nil {
			return &Error{Kind: CreateFailed, Err: err}
		}
		m.materializedTake = m.take
		d := f.Duration
		m.duration = &d
	case EffectStartPlayback:
		m.playID++
		id := m.playID
		if err := m.player.Start(m.files.Path(), func() { m.notifyFinished(id) }); err != nil {
			return &Error{Kind: DecodeFailed, Err: err}
		}
		m.plays++
	case EffectSetIcon:
		m.shell.SetRecordIcon(e.Icon)
	}
	return nil
}

func (m *Machine) rollback(u *undo) {
	if u.samplerStarted {
		m.sampler.Stop()
		m.shell.SetAmplitude(0)
	}
	if u.timerStarted {
		m.timer.Stop()
		m.shell.SetTimerVisible(false)
	}
	if u.cleared {
		m.buffer.Clear()
		for _, f := range u.frames {
			m.buffer.Append(f)
		}
	}
}

func (m *Machine) surface(err error) {
	var e *Error
	if !errors.As(err, &e) {
		return
	}
	alert := AlertFor(e.Kind)
	log.Alert(e.Kind.String(), alert.Message, e.Err)
	m.shell.ShowAlert(alert)
}

// notifyFinished runs on a device goroutine and must not block it.
func (m *Machine) notifyFinished(id uint64) {
	go func() {
		select {
		case m.finished <- id:
		case <-m.done:
		}
	}()
}

func (m *Machine) renderTimer() {
	if !m.timer.Running() {
		return
	}
	m.shell.SetTimerText(m.timer.Text(m.timerMode, m.duration))
}

func (m *Machine) renderLevel() {
	playing := m.player.Playing()
	power := m.player.Power()
	m.shell.SetAmplitude(m.sampler.Amplitude(power, playing))
}
