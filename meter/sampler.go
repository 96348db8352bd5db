package meter

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultInterval  = 16 * time.Millisecond
	DefaultGain      = 3.0
	DefaultIdleScale = 0.4
)

// Sampler paces level reads while a file plays.
type Sampler struct {
	clock    clockwork.Clock
	interval time.Duration
	table    *Table
	gain     float64
	idle     float64

	mu     sync.Mutex
	ticker clockwork.Ticker
}

func NewSampler(c clockwork.Clock, interval time.Duration, gain, idle float64) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		clock:    c,
		interval: interval,
		table:    DefaultTable(),
		gain:     gain,
		idle:     idle,
	}
}

func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = s.clock.NewTicker(s.interval)
}

func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

// C returns the tick channel, or nil while stopped.
func (s *Sampler) C() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return nil
	}
	return s.ticker.Chan()
}

// Amplitude converts a power reading into the displayed amplitude.
func (s *Sampler) Amplitude(powerDB float64, playing bool) float64 {
	if !playing {
		return s.idle
	}
	return s.table.Value(powerDB) * s.gain
}
