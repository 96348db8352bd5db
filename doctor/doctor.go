// Package doctor runs interactive checks of the storage directory, the
// microphone and the speakers.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"memo/audio"
	"memo/capture"
	"memo/encoder"
	"memo/playback"
)

const (
	DefaultRecordFor = 3 * time.Second
	playbackSlack    = 2 * time.Second
	// quieter than this is treated as a muted or disconnected input
	quietDB = -70.0
)

type Options struct {
	Context   audio.Context
	Device    *audio.DeviceInfo
	Format    audio.Format
	Directory string
	RecordFor time.Duration
	// Hotkeys, when set, reports global hotkey support. Its result is
	// informational and never fails the run.
	Hotkeys func() (string, error)

	In  io.Reader
	Out io.Writer
}

type checker struct {
	opts   Options
	in     *bufio.Reader
	out    io.Writer
	frames []audio.Frame
}

// Run executes the checks in order and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.RecordFor <= 0 {
		opts.RecordFor = DefaultRecordFor
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	c := &checker{opts: opts, in: bufio.NewReader(opts.In), out: opts.Out}

	c.println("memo doctor - interactive system diagnostics")
	c.println("============================================")

	allPass := c.checkStorage() && c.checkMicrophone() && c.checkPlayback()
	c.reportHotkeys()

	c.println()
	if allPass {
		c.println("All checks passed!")
		return 0
	}
	c.println("Some checks failed. See details above.")
	return 1
}

func (c *checker) println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *checker) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *checker) reportHotkeys() {
	if c.opts.Hotkeys == nil {
		return
	}
	c.println()
	c.println("Global hotkeys")
	msg, err := c.opts.Hotkeys()
	if err != nil {
		c.printf("  WARN: %v (TUI keys still work)\n", err)
		return
	}
	c.printf("  INFO: %s\n", msg)
}

func (c *checker) checkStorage() bool {
	c.println()
	c.println("[1/3] Storage")

	dir := c.opts.Directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.printf("  FAIL: cannot create %s: %v\n", dir, err)
		return false
	}
	probe := filepath.Join(dir, ".memo-doctor.wav")
	enc, err := encoder.NewWav(probe, c.opts.Format)
	if err != nil {
		c.printf("  FAIL: cannot write to %s: %v\n", dir, err)
		return false
	}
	closeErr := enc.Close()
	os.Remove(probe)
	if closeErr != nil {
		c.printf("  FAIL: cannot finish a file in %s: %v\n", dir, closeErr)
		return false
	}
	c.printf("  PASS: %s is writable\n", dir)
	return true
}

func (c *checker) checkMicrophone() bool {
	c.println()
	c.println("[2/3] Microphone")

	dev, err := c.opts.Context.NewCapture(c.opts.Device, c.opts.Format)
	if err != nil {
		c.printf("  FAIL: cannot open capture device: %v\n", err)
		return false
	}
	defer dev.Close()
	c.printf("Using device: %s\n", dev.DeviceName())

	c.printf("Press Enter and speak for %s...", c.opts.RecordFor)
	c.in.ReadString('\n')

	buf := audio.NewFrameBuffer()
	ctrl := capture.New(dev, c.opts.Format, 0, buf)
	if err := ctrl.Start(); err != nil {
		c.printf("  FAIL: %v\n", err)
		return false
	}

	c.printf("  Recording")
	deadline := time.After(c.opts.RecordFor)
	ticker := time.NewTicker(500 * time.Millisecond)
wait:
	for {
		select {
		case <-deadline:
			break wait
		case <-ticker.C:
			c.printf(".")
		}
	}
	ticker.Stop()
	ctrl.Stop()
	c.println(" done")

	c.frames = buf.Snapshot()
	if buf.TotalFrames() == 0 {
		c.println("  FAIL: no audio captured")
		return false
	}

	var samples []float32
	for _, f := range c.frames {
		samples = append(samples, f.Samples...)
	}
	power := playback.AveragePower(samples, int(c.opts.Format.Channels))
	c.printf("  Captured %s, average level %.1f dB\n", c.opts.Format.Duration(buf.TotalFrames()), power)
	if power < quietDB {
		c.println("  FAIL: only silence captured, check that the input is not muted")
		return false
	}
	c.println("  PASS: microphone captured audio")
	return true
}

func (c *checker) checkPlayback() bool {
	c.println()
	c.println("[3/3] Playback")

	path := filepath.Join(c.opts.Directory, ".memo-doctor-take.wav")
	defer os.Remove(path)
	f, err := encoder.NewMaterializer(path, c.opts.Format).Materialize(c.frames)
	if err != nil {
		c.printf("  FAIL: %v\n", err)
		return false
	}

	player := playback.New(c.opts.Context)
	done := make(chan struct{})
	if err := player.Start(path, func() { close(done) }); err != nil {
		c.printf("  FAIL: %v\n", err)
		return false
	}
	c.printf("  Playing back %s...\n", f.Duration)
	select {
	case <-done:
	case <-time.After(f.Duration + playbackSlack):
		player.Stop()
		c.println("  FAIL: playback did not finish")
		return false
	}

	c.printf("Did you hear the recording? [y/n]: ")
	confirm, _ := c.in.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		c.println("  PASS: playback verified by user")
		return true
	}
	c.println("  FAIL: playback not confirmed")
	return false
}
