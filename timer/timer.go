// Package timer formats and paces the elapsed/remaining time label.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Mode int

const (
	ModeElapsed Mode = iota
	ModeRemaining
)

func (m Mode) String() string {
	if m == ModeRemaining {
		return "remaining"
	}
	return "elapsed"
}

const DefaultInterval = time.Second

// Format renders the whole hours, minutes and seconds from one instant to
// another. Hours appear only when non-zero.
func Format(from, to time.Time) string {
	d := to.Sub(from)
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func Elapsed(start, now time.Time) string {
	return Format(start, now)
}

// Remaining renders the time left until start+duration. It reports false
// when the duration is unknown.
func Remaining(start time.Time, duration *time.Duration, now time.Time) (string, bool) {
	if duration == nil {
		return "", false
	}
	return Format(now, start.Add(*duration)), true
}

// Timer tracks a start instant and a tick source for the label.
type Timer struct {
	clock    clockwork.Clock
	interval time.Duration

	mu        sync.Mutex
	ticker    clockwork.Ticker
	startedAt time.Time
	running   bool
}

func New(c clockwork.Clock, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Timer{clock: c, interval: interval}
}

// Start records a fresh start instant and (re)starts ticking.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
	}
	t.startedAt = t.clock.Now()
	t.ticker = t.clock.NewTicker(t.interval)
	t.running = true
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.startedAt = time.Time{}
	t.running = false
}

// C returns the tick channel, or nil while stopped.
func (t *Timer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker == nil {
		return nil
	}
	return t.ticker.Chan()
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// Text renders the label for the current instant. It returns "" while
// stopped or when a remaining label has no known duration.
func (t *Timer) Text(mode Mode, duration *time.Duration) string {
	t.mu.Lock()
	start, running := t.startedAt, t.running
	t.mu.Unlock()
	if !running {
		return ""
	}
	now := t.clock.Now()
	if mode == ModeRemaining {
		s, _ := Remaining(start, duration, now)
		return s
	}
	return Elapsed(start, now)
}
