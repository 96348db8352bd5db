package encoder

import (
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"memo/audio"
)

// WavEncoder writes 16-bit integer PCM.
type WavEncoder struct {
	file        *os.File
	enc         *wav.Encoder
	format      audio.Format
	ints        []int
	totalFrames uint64
	encodeTime  time.Duration
}

// NewWav creates path, truncating any existing file, and writes the header.
func NewWav(path string, format audio.Format) (*WavEncoder, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("invalid format %+v", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	e := &WavEncoder{
		file:   f,
		enc:    wav.NewEncoder(f, int(format.SampleRate), BitsPerSample, int(format.Channels), wavFormatPCM),
		format: format,
	}
	// an empty write forces the header out so an unwritable file fails here
	if err := e.enc.Write(e.intBuffer(nil)); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return e, nil
}

func (e *WavEncoder) intBuffer(data []int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(e.format.Channels),
			SampleRate:  int(e.format.SampleRate),
		},
		Data:           data,
		SourceBitDepth: BitsPerSample,
	}
}

func (e *WavEncoder) WriteFrame(f audio.Frame) error {
	if f.Format != e.format {
		return fmt.Errorf("%w: %+v, file is %+v", ErrFormatMismatch, f.Format, e.format)
	}
	start := time.Now()
	defer func() { e.encodeTime += time.Since(start) }()

	if cap(e.ints) < len(f.Samples) {
		e.ints = make([]int, len(f.Samples))
	}
	ints := e.ints[:len(f.Samples)]
	for i, s := range f.Samples {
		ints[i] = toInt16(s)
	}
	if err := e.enc.Write(e.intBuffer(ints)); err != nil {
		return err
	}
	e.totalFrames += uint64(f.Len())
	return nil
}

func toInt16(s float32) int {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int(s * 32767)
}

func (e *WavEncoder) Close() error {
	encErr := e.enc.Close()
	fileErr := e.file.Close()
	if encErr != nil {
		return encErr
	}
	return fileErr
}

func (e *WavEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

func (e *WavEncoder) EncodeTime() time.Duration {
	return e.encodeTime
}
