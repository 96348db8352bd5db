package encoder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"memo/audio"
	"memo/log"
)

var ErrCreate = errors.New("couldn't create audio file")

// File describes a materialized recording.
type File struct {
	Path     string
	Format   audio.Format
	Frames   uint64
	Duration time.Duration
}

// Materializer writes the frames of a take to one fixed path, replacing the
// previous file.
type Materializer struct {
	path     string
	fallback audio.Format
	writes   int

	// newEncoder is swapped in tests.
	newEncoder func(path string, format audio.Format) (Encoder, error)
}

func NewMaterializer(path string, fallback audio.Format) *Materializer {
	return &Materializer{
		path:     path,
		fallback: fallback,
		newEncoder: func(path string, format audio.Format) (Encoder, error) {
			return NewWav(path, format)
		},
	}
}

func (m *Materializer) Path() string {
	return m.path
}

// Materialize writes frames in order. The file takes the format of the first
// frame, or the fallback format when there are none. A frame that cannot be
// written is logged and skipped; failing to create or finalize the file
// returns ErrCreate and leaves any previous file in place.
func (m *Materializer) Materialize(frames []audio.Frame) (File, error) {
	format := m.fallback
	if len(frames) > 0 {
		format = frames[0].Format
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}

	tmp := m.path + ".tmp"
	enc, err := m.newEncoder(tmp, format)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}

	skipped := 0
	for i, f := range frames {
		if err := enc.WriteFrame(f); err != nil {
			skipped++
			log.FrameSkipped(i, err)
		}
	}

	if err := enc.Close(); err != nil {
		os.Remove(tmp)
		return File{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return File{}, fmt.Errorf("%w: %v", ErrCreate, err)
	}

	out := File{
		Path:     m.path,
		Format:   format,
		Frames:   enc.TotalFrames(),
		Duration: format.Duration(enc.TotalFrames()),
	}
	if _, dur, err := audio.WAVInfo(m.path); err == nil {
		out.Duration = dur
	} else {
		log.Warnf("reading back %s: %v", m.path, err)
	}

	m.writes++
	var size float64
	if st, err := os.Stat(m.path); err == nil {
		size = float64(st.Size()) / 1024
	}
	log.Materialized(m.path, log.MaterializeMetrics{
		Take:     m.writes,
		Frames:   out.Frames,
		Blocks:   len(frames),
		Skipped:  skipped,
		AudioS:   out.Duration.Seconds(),
		SizeKB:   size,
		EncodeMs: float64(enc.EncodeTime().Microseconds()) / 1000,
	})
	return out, nil
}
