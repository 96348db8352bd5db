package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"memo/audio"
	"memo/beep"
	"memo/log"
	"memo/permission"
	"memo/session"
)

const waitFinishPoll = 10 * time.Millisecond

// lineShell prints state changes and alerts, one per line.
type lineShell struct {
	session.NopShell
	mu  sync.Mutex
	out io.Writer
}

func (s *lineShell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *lineShell) StateChanged(st session.State) { s.printf("state %s\n", st) }

func (s *lineShell) ShowAlert(a session.Alert) { s.printf("alert %s\n", a.Kind) }

// runTestMode drives a session on fake devices fed from wavPath. Commands are
// read from in until QUIT or EOF.
func runTestMode(ctx context.Context, wavPath string, in io.Reader, out io.Writer) error {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		return fmt.Errorf("loading WAV: %w", err)
	}
	format := fakeCtx.Format()
	dev, err := fakeCtx.NewCapture(nil, format)
	if err != nil {
		return fmt.Errorf("creating capture: %w", err)
	}
	defer dev.Close()
	fakeCapture := dev.(*audio.FakeCapture)

	shell := &lineShell{out: out}
	sess := newSession(fakeCtx, dev, format, permission.NewStatic(cfg.PermissionStatus()), shell)
	log.SessionStart(dev.DeviceName(), format.SampleRate, format.Channels, cfg.RecordingPath())

	ctx, cancel := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() { runDone <- sess.machine.Run(ctx) }()
	defer func() {
		cancel()
		<-runDone
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
		case "RECORD":
			if err := sess.machine.Record(ctx); err != nil {
				log.Warnf("record: %v", err)
			}
		case "PLAY":
			if err := sess.machine.Play(ctx); err != nil {
				log.Warnf("play: %v", err)
			}
		case "WAIT_FINISH":
			for sess.machine.State() == session.Playing {
				time.Sleep(waitFinishPoll)
			}
		case "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case "STATE":
			shell.printf("%s\n", sess.machine.State())
		case "QUIT":
			return nil
		default:
			if ms, ok := strings.CutPrefix(cmd, "SLEEP "); ok {
				if n, err := strconv.Atoi(ms); err == nil {
					time.Sleep(time.Duration(n) * time.Millisecond)
				}
				continue
			}
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
	return scanner.Err()
}
