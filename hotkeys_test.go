package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"memo/hotkey"
)

func TestStartHotkeysForwardsPresses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fakes := map[string]*hotkey.Fake{}
	newFake := func(c hotkey.Combo) hotkey.Hotkey {
		f := hotkey.NewFake()
		fakes[c.String()] = f
		return f
	}
	calls := make(chan string, 4)
	bindings := []hotkeyBinding{
		{name: "record", spec: "ctrl+shift+r", run: func(context.Context) error { calls <- "record"; return nil }},
		{name: "play", spec: "ctrl+shift+p", run: func(context.Context) error { calls <- "play"; return errors.New("nothing to play") }},
	}
	line, stop := startHotkeys(ctx, bindings, newFake)
	if !strings.Contains(line, "ctrl+shift+r record") || !strings.Contains(line, "ctrl+shift+p play") {
		t.Errorf("line = %q", line)
	}

	for _, tc := range []struct{ combo, want string }{
		{"ctrl+shift+p", "play"},
		{"ctrl+shift+r", "record"},
		{"ctrl+shift+r", "record"},
	} {
		fakes[tc.combo].SimKeydown()
		select {
		case got := <-calls:
			if got != tc.want {
				t.Errorf("%s ran %s, want %s", tc.combo, got, tc.want)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s press not forwarded", tc.combo)
		}
	}

	stop()
	for combo, f := range fakes {
		if f.Registered {
			t.Errorf("%s still registered after stop", combo)
		}
	}
}

func TestStartHotkeysSkipsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var created []hotkey.Combo
	newFake := func(c hotkey.Combo) hotkey.Hotkey {
		created = append(created, c)
		f := hotkey.NewFake()
		f.RegisterErr = errors.New("cannot open keyboard")
		return f
	}
	noop := func(context.Context) error { return nil }
	line, stop := startHotkeys(ctx, []hotkeyBinding{
		{name: "record", spec: "", run: noop},
		{name: "play", spec: "ctrl+shift+p", run: noop},
	}, newFake)
	defer stop()

	if line != "" {
		t.Errorf("line = %q, want empty", line)
	}
	if len(created) != 1 || created[0].Key != "p" {
		t.Errorf("created = %+v, want only the play binding", created)
	}
}
