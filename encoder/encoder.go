package encoder

import (
	"errors"
	"time"

	"memo/audio"
)

const (
	BitsPerSample = 16
	wavFormatPCM  = 1
)

var ErrFormatMismatch = errors.New("frame format does not match file format")

// Encoder writes captured frames to a file. A failed WriteFrame leaves the
// encoder usable; Close finalizes the file.
type Encoder interface {
	WriteFrame(f audio.Frame) error
	Close() error
	TotalFrames() uint64
	EncodeTime() time.Duration
}
