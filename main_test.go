package main

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"memo/audio"
	"memo/config"
	"memo/encoder"
	"memo/session"
)

func writeTone(t *testing.T, path string, format audio.Format, frames int) {
	t.Helper()
	enc, err := encoder.NewWav(path, format)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]float32, frames*int(format.Channels))
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(format.SampleRate)))
	}
	if err := enc.WriteFrame(audio.Frame{Format: format, Samples: samples}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func useConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = config.Default()
	cfg.Storage.Directory = t.TempDir()
	t.Cleanup(func() { cfg = prev })
}

func TestRunTestMode(t *testing.T) {
	useConfig(t)
	format := audio.Format{SampleRate: 8000, Channels: 1}
	wavPath := filepath.Join(t.TempDir(), "in.wav")
	writeTone(t, wavPath, format, 1600)

	script := strings.Join([]string{
		"PLAY",
		"RECORD",
		"WAIT_AUDIO_DONE",
		"RECORD",
		"PLAY",
		"WAIT_FINISH",
		"STATE",
		"QUIT",
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := runTestMode(context.Background(), wavPath, strings.NewReader(script), &out); err != nil {
		t.Fatalf("runTestMode: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"alert nothing_recorded",
		"state recording\n",
		"state recording_stopped",
		"state playing\n",
		"state playing_stopped",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if last := lines[len(lines)-1]; last != "playing_stopped" {
		t.Errorf("STATE printed %q, want playing_stopped", last)
	}

	_, samples, err := audio.ReadWAV(cfg.RecordingPath())
	if err != nil {
		t.Fatalf("reading recording: %v", err)
	}
	if len(samples) != 1600 {
		t.Errorf("recorded %d samples, want 1600", len(samples))
	}
}

func TestRunTestModeMissingWAV(t *testing.T) {
	useConfig(t)
	err := runTestMode(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), strings.NewReader(""), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing WAV")
	}
}

func TestTUIModelAppliesShellMessages(t *testing.T) {
	m := &tuiModel{ctx: context.Background(), deviceLine: deviceLineText("")}

	m.Update(stateMsg{session.Recording})
	m.Update(iconMsg{session.IconStop})
	m.Update(timerVisibleMsg{true})
	m.Update(timerTextMsg{"00:07"})

	view := m.View()
	for _, want := range []string{"REC", "00:07", "stop", "mic: system default"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.Update(alertMsg{session.AlertFor(session.PermissionDenied)})
	if view := m.View(); !strings.Contains(view, "Permission Denied") || !strings.Contains(view, "Grant Permission") {
		t.Errorf("alert not rendered:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.alert != nil {
		t.Error("esc should dismiss the alert")
	}
}

func TestTUIQuitKeys(t *testing.T) {
	m := &tuiModel{ctx: context.Background()}
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s: no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: did not quit", key)
		}
	}
}

func TestTUITapWithoutMachine(t *testing.T) {
	m := &tuiModel{ctx: context.Background()}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd != nil {
		t.Error("record tap without a machine should be ignored")
	}
}

func TestRenderWaveform(t *testing.T) {
	flat := renderWaveform(0, 0, false)
	if n := strings.Count(flat, "\n"); n != waveHeight {
		t.Fatalf("rows = %d, want %d", n, waveHeight)
	}
	loud := renderWaveform(3, 1, true)
	if flat == loud {
		t.Error("waveform should follow the level")
	}
}

func TestDeviceLineText(t *testing.T) {
	if got := deviceLineText("USB Mic"); got != "mic: USB Mic" {
		t.Errorf("got %q", got)
	}
}
