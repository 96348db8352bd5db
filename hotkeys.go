package main

import (
	"context"
	"strings"

	"memo/config"
	"memo/hotkey"
	"memo/log"
	"memo/session"
)

type hotkeyBinding struct {
	name string
	spec string
	run  func(context.Context) error
}

func machineBindings(hc config.HotkeyConfig, m *session.Machine) []hotkeyBinding {
	return []hotkeyBinding{
		{name: "record", spec: hc.Record, run: m.Record},
		{name: "play", spec: hc.Play, run: m.Play},
	}
}

// startHotkeys registers every configured combination and forwards its
// presses to run. A combination that cannot be registered is logged and
// skipped; the TUI keys keep working. The returned line describes the
// active bindings and stop unregisters them.
func startHotkeys(ctx context.Context, bindings []hotkeyBinding, newHotkey func(hotkey.Combo) hotkey.Hotkey) (line string, stop func()) {
	var (
		registered []hotkey.Hotkey
		active     []string
	)
	for _, b := range bindings {
		if b.spec == "" {
			continue
		}
		combo, err := hotkey.Parse(b.spec)
		if err != nil {
			log.Warnf("hotkey %s: %v", b.name, err)
			continue
		}
		hk := newHotkey(combo)
		if err := hk.Register(); err != nil {
			log.Warnf("hotkey %s (%s) register error: %v", b.name, combo, err)
			continue
		}
		registered = append(registered, hk)
		active = append(active, combo.String()+" "+b.name)
		log.Infof("hotkey %s bound to %s", b.name, combo)

		run, name := b.run, b.name
		go hotkey.Listen(ctx, hk, func(ctx context.Context) {
			log.Info("hotkey_" + name)
			// failures reach the shell as alerts
			if err := run(ctx); err != nil {
				log.Warnf("hotkey %s: %v", name, err)
			}
		})
	}
	if len(active) > 0 {
		line = "global: " + strings.Join(active, "  ")
	}
	return line, func() {
		for _, hk := range registered {
			hk.Unregister()
		}
	}
}
