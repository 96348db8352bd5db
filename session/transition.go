package session

import (
	"fmt"

	"memo/timer"
)

type EffectKind int

const (
	EffectStopPlayback EffectKind = iota
	EffectStopCapture
	EffectClearBuffer
	EffectStartCapture
	EffectStartTimer
	EffectStopTimer
	EffectStartSampler
	EffectStopSampler
	EffectMaterialize
	EffectStartPlayback
	EffectSetIcon
	EffectSurface
)

var effectNames = map[EffectKind]string{
	EffectStopPlayback:  "stop_playback",
	EffectStopCapture:   "stop_capture",
	EffectClearBuffer:   "clear_buffer",
	EffectStartCapture:  "start_capture",
	EffectStartTimer:    "start_timer",
	EffectStopTimer:     "stop_timer",
	EffectStartSampler:  "start_sampler",
	EffectStopSampler:   "stop_sampler",
	EffectMaterialize:   "materialize",
	EffectStartPlayback: "start_playback",
	EffectSetIcon:       "set_icon",
	EffectSurface:       "surface",
}

// Effect is one step the machine performs for a transition. Mode, Icon and
// Err are set only for the kinds that use them.
type Effect struct {
	Kind EffectKind
	Mode timer.Mode
	Icon Icon
	Err  Kind
}

func (e Effect) String() string {
	name := effectNames[e.Kind]
	switch e.Kind {
	case EffectStartTimer:
		return fmt.Sprintf("%s(%s)", name, e.Mode)
	case EffectSetIcon:
		return fmt.Sprintf("%s(%s)", name, e.Icon)
	case EffectSurface:
		return fmt.Sprintf("%s(%s)", name, e.Err)
	}
	return name
}

func do(k EffectKind) Effect    { return Effect{Kind: k} }
func startTimer(s State) Effect { return Effect{Kind: EffectStartTimer, Mode: TimerModeFor(s)} }
func setIcon(i Icon) Effect     { return Effect{Kind: EffectSetIcon, Icon: i} }
func surface(k Kind) Effect     { return Effect{Kind: EffectSurface, Err: k} }

// Facts are the inputs a transition needs besides state and trigger.
type Facts struct {
	// PermissionGranted is only consulted for a record tap in NotInitiated.
	PermissionGranted bool
	// Materialized reports that the current take is already on disk.
	Materialized bool
}

// Transition computes the next state and the effects that take the
// components there. It has no side effects.
func Transition(s State, t Trigger, f Facts) (State, []Effect) {
	switch t {
	case TriggerRecord:
		return onRecord(s, f)
	case TriggerPlay:
		return onPlay(s, f)
	case TriggerPlaybackFinished:
		if s == Playing {
			return PlayingStopped, []Effect{do(EffectStopTimer), do(EffectStopSampler)}
		}
	}
	return s, nil
}

func onRecord(s State, f Facts) (State, []Effect) {
	effects := []Effect{do(EffectStopPlayback)}
	switch s {
	case NotInitiated:
		if !f.PermissionGranted {
			return s, append(effects, surface(PermissionDenied))
		}
	case Recording:
		return RecordingStopped, append(effects,
			do(EffectStopCapture),
			do(EffectStopTimer),
			setIcon(IconRecord),
		)
	case Playing:
		effects = append(effects, do(EffectStopTimer), do(EffectStopSampler))
	}
	return Recording, append(effects,
		do(EffectClearBuffer),
		do(EffectStartCapture),
		startTimer(Recording),
		setIcon(IconStop),
	)
}

func onPlay(s State, f Facts) (State, []Effect) {
	switch s {
	case NotInitiated:
		return s, []Effect{surface(NothingRecorded)}
	case Recording:
		return s, []Effect{surface(RecordingInProgress)}
	case Playing:
		return s, nil
	}
	var effects []Effect
	if !f.Materialized {
		effects = append(effects, do(EffectMaterialize))
	}
	return Playing, append(effects,
		do(EffectStartPlayback),
		startTimer(Playing),
		do(EffectStartSampler),
	)
}
