package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagFileName   = "diagnostics_log.txt"
	memoFileName   = "recordings_log.txt"
	envLogPath     = "MEMO_LOG_PATH"
	timeFormatText = "2006-01-02 15:04:05"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	memoFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: MEMO_LOG_PATH environment variable
	if envPath := os.Getenv(envLogPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	memoFile, err = os.OpenFile(filepath.Join(dir, memoFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: timeFormatText,
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if memoFile != nil {
		memoFile.Close()
		memoFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(device string, sampleRate, channels uint32, path string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Uint32("sample_rate", sampleRate).
		Uint32("channels", channels).
		Str("path", path).
		Msg("session_start")
}

func Transition(from, to, trigger string) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("from", from).
		Str("to", to).
		Str("trigger", trigger).
		Msg("transition")
}

type MaterializeMetrics struct {
	Take     int
	Frames   uint64
	Blocks   int
	Skipped  int
	AudioS   float64
	SizeKB   float64
	EncodeMs float64
}

func Materialized(path string, m MaterializeMetrics) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("path", path).
		Int("take", m.Take).
		Uint64("frames", m.Frames).
		Int("blocks", m.Blocks).
		Int("skipped", m.Skipped).
		Float64("audio_s", m.AudioS).
		Float64("size_kb", m.SizeKB).
		Float64("encode_ms", m.EncodeMs).
		Msg("materialized")

	logMu.Lock()
	defer logMu.Unlock()
	if memoFile != nil {
		line := fmt.Sprintf("%s\t[%d]\ttake %d\t%.2fs\t%s\n",
			time.Now().Format(timeFormatText), pid, m.Take, m.AudioS, path)
		memoFile.WriteString(line)
	}
}

func FrameSkipped(index int, err error) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Int("block", index).
		Err(err).
		Msg("frame_skipped")
}

func Alert(kind, message string, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Error().
		Str("kind", kind).
		Str("message", message)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("alert")
}

func SessionEnd(takes, plays int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("takes", takes).
		Int("plays", plays).
		Msg("session_end")
}
