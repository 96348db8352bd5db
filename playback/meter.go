package playback

import (
	"math"
	"sync/atomic"

	"memo/audio"
)

// SilenceDB is the floor reported for digital silence.
const SilenceDB = -160.0

// meteredSource records the power of each block as the device pulls it.
type meteredSource struct {
	inner    audio.Source
	channels int
	level    atomic.Uint64
}

func newMeteredSource(inner audio.Source, channels int) *meteredSource {
	m := &meteredSource{inner: inner, channels: max(channels, 1)}
	m.level.Store(math.Float64bits(SilenceDB))
	return m
}

func (m *meteredSource) Read(dst []float32) (int, error) {
	n, err := m.inner.Read(dst)
	if n > 0 {
		m.level.Store(math.Float64bits(AveragePower(dst[:n], m.channels)))
	}
	return n, err
}

func (m *meteredSource) power() float64 {
	return math.Float64frombits(m.level.Load())
}

// AveragePower converts each channel's RMS to decibels, clamps it to
// [SilenceDB, 0] and averages across channels.
func AveragePower(samples []float32, channels int) float64 {
	if channels < 1 || len(samples) < channels {
		return SilenceDB
	}
	sum := make([]float64, channels)
	frames := len(samples) / channels
	for i := 0; i < frames*channels; i++ {
		v := float64(samples[i])
		sum[i%channels] += v * v
	}
	total := 0.0
	for _, s := range sum {
		total += channelDB(s / float64(frames))
	}
	return total / float64(channels)
}

func channelDB(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return SilenceDB
	}
	db := 10 * math.Log10(meanSquare)
	return math.Max(SilenceDB, math.Min(0, db))
}
