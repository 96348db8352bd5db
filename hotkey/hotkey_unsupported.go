//go:build !linux && !darwin && !windows

package hotkey

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("global hotkeys are not supported on " + runtime.GOOS)

type unsupported struct{}

func New(Combo) Hotkey { return unsupported{} }

func (unsupported) Register() error          { return errUnsupported }
func (unsupported) Unregister()              {}
func (unsupported) Keydown() <-chan struct{} { return nil }
func (unsupported) Keyup() <-chan struct{}   { return nil }

func Diagnose() (string, error) { return "", errUnsupported }
