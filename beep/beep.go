// Package beep plays the tone that accompanies alerts.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"memo/audio"
	"memo/log"
)

const (
	sampleRate = 44100

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	// playback gives up waiting for the device after this long
	playTimeout = 2 * time.Second
)

var format = audio.Format{SampleRate: sampleRate, Channels: 1}

var (
	disabled atomic.Bool
	mu       sync.Mutex
	ctx      audio.Context
	playing  sync.Mutex

	errorSamples []float32
)

func Disable() { disabled.Store(true) }

// Init sets the context cues are played through.
func Init(c audio.Context) {
	mu.Lock()
	defer mu.Unlock()
	ctx = c
	errorSamples = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

// PlayError plays the error double-beep without blocking.
func PlayError() {
	if disabled.Load() {
		return
	}
	mu.Lock()
	c, samples := ctx, errorSamples
	mu.Unlock()
	if c == nil || len(samples) == 0 {
		return
	}
	go playSamples(c, samples)
}

// playSamples blocks until the cue has played. Overlapping cues are
// serialized.
func playSamples(c audio.Context, samples []float32) {
	playing.Lock()
	defer playing.Unlock()

	dev, err := c.NewPlayback(format)
	if err != nil {
		log.Warnf("beep: %v", err)
		return
	}
	defer dev.Close()

	done := make(chan struct{})
	var once sync.Once
	if err := dev.Start(audio.NewSliceSource(samples), func() { once.Do(func() { close(done) }) }); err != nil {
		log.Warnf("beep: %v", err)
		return
	}
	select {
	case <-done:
	case <-time.After(playTimeout):
	}
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []float32 {
	n := int(float64(sampleRate) * duration)
	buf := make([]float32, n)
	for i := range buf {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		buf[i] = float32(math.Sin(2*math.Pi*freq*t) * volume * envelope)
	}
	return buf
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []float32 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]float32, int(float64(sampleRate)*gapDur))
	result := make([]float32, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
