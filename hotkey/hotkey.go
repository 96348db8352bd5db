// Package hotkey listens for global key combinations so a take can be
// started or played back while the terminal is not focused.
package hotkey

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Combo is one key plus the modifiers that must be held with it.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string
}

// Parse reads a combination such as "ctrl+shift+r". At least one
// modifier is required so the binding never swallows plain typing.
func Parse(s string) (Combo, error) {
	var c Combo
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "":
			return Combo{}, fmt.Errorf("hotkey %q: empty key", s)
		default:
			if c.Key != "" {
				return Combo{}, fmt.Errorf("hotkey %q: more than one key", s)
			}
			if !knownKey(part) {
				return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, part)
			}
			c.Key = part
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q: no key", s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt {
		return Combo{}, fmt.Errorf("hotkey %q: needs a modifier", s)
	}
	return c, nil
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Keys lists the key names Parse accepts.
func Keys() []string {
	names := make([]string, 0, len(keyCodes))
	for k := range keyCodes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func knownKey(name string) bool {
	_, ok := keyCodes[name]
	return ok
}

// Listen calls onPress for every keydown until ctx is done. Presses are
// handled one at a time; a press arriving while onPress runs is kept.
func Listen(ctx context.Context, hk Hotkey, onPress func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			onPress(ctx)
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
