package audio

import "sync"

// FrameBuffer is the append-only store for one take. Append runs on the
// capture goroutine; Clear and Snapshot run on the control loop while capture
// is stopped.
type FrameBuffer struct {
	mu     sync.Mutex
	frames []Frame
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (b *FrameBuffer) Append(f Frame) {
	b.mu.Lock()
	b.frames = append(b.frames, f)
	b.mu.Unlock()
}

func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	b.frames = nil
	b.mu.Unlock()
}

// Snapshot returns the frames in capture order. The returned slice is not
// affected by later Append or Clear calls.
func (b *FrameBuffer) Snapshot() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// TotalFrames returns the number of sample frames across all blocks.
func (b *FrameBuffer) TotalFrames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n uint64
	for _, f := range b.frames {
		n += uint64(f.Len())
	}
	return n
}
