package hotkey

import (
	"context"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
	}{
		{"ctrl+shift+r", Combo{Ctrl: true, Shift: true, Key: "r"}},
		{"Ctrl + Shift + Space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"alt+f9", Combo{Alt: true, Key: "f9"}},
		{"option+control+1", Combo{Ctrl: true, Alt: true, Key: "1"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "r", "ctrl+shift", "ctrl+r+p", "ctrl+", "ctrl+enterprise"} {
		if c, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) = %+v, want error", in, c)
		}
	}
}

func TestComboString(t *testing.T) {
	c, err := Parse("shift+ALT+ctrl+p")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.String(); got != "ctrl+alt+shift+p" {
		t.Errorf("String = %q", got)
	}
	again, err := Parse(c.String())
	if err != nil || again != c {
		t.Errorf("reparse = %+v, %v", again, err)
	}
}

func TestKeysAreParseable(t *testing.T) {
	for _, k := range Keys() {
		if _, err := Parse("ctrl+" + k); err != nil {
			t.Errorf("key %q: %v", k, err)
		}
	}
}

func TestListenCallsOnPress(t *testing.T) {
	fk := NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	pressed := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		Listen(ctx, fk, func(context.Context) { pressed <- struct{}{} })
		close(done)
	}()

	for i := 0; i < 2; i++ {
		fk.SimKeydown()
		select {
		case <-pressed:
		case <-time.After(time.Second):
			t.Fatalf("press %d not delivered", i)
		}
	}

	fk.SimKeyup()
	select {
	case <-pressed:
		t.Fatal("keyup treated as press")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
