package audio

import (
	"strings"
	"time"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	// TapBlockSize is the number of sample frames per captured Frame.
	TapBlockSize = 4096
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether the input is a headset
// running the low quality hands-free profile.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Format describes interleaved float32 PCM.
type Format struct {
	SampleRate uint32
	Channels   uint32
}

func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Duration returns the playing time of n sample frames.
func (f Format) Duration(frames uint64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Frame is one block of captured audio. Samples are interleaved and
// normalised to [-1, 1].
type Frame struct {
	Format  Format
	Samples []float32
}

// Len returns the number of sample frames.
func (f Frame) Len() int {
	if f.Format.Channels == 0 {
		return 0
	}
	return len(f.Samples) / int(f.Format.Channels)
}

// DataCallback receives captured samples on the device's realtime goroutine.
// The slice is only valid for the duration of the call.
type DataCallback func(samples []float32, frameCount uint32)

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, format Format) (CaptureDevice, error)
	NewPlayback(format Format) (PlaybackDevice, error)
	Close()
}

// CaptureDevice delivers microphone samples to the installed callback.
// Stop must not return while a callback is still running.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// Source yields interleaved samples for playback and returns io.EOF once
// exhausted.
type Source interface {
	Read(dst []float32) (int, error)
}

// PlaybackDevice pulls from a Source until it is drained. onEnd runs on a
// device goroutine once the source hit EOF and the tail was played, unless
// Stop was called first. Stop is synchronous.
type PlaybackDevice interface {
	Start(src Source, onEnd func()) error
	Stop()
	Close()
}
