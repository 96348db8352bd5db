// Package session owns the recorder's state and drives capture, playback,
// the time label and the level meter from record and play taps.
package session

import "memo/timer"

type State int32

const (
	NotInitiated State = iota
	Recording
	RecordingStopped
	Playing
	PlayingStopped
)

func (s State) String() string {
	switch s {
	case NotInitiated:
		return "not_initiated"
	case Recording:
		return "recording"
	case RecordingStopped:
		return "recording_stopped"
	case Playing:
		return "playing"
	case PlayingStopped:
		return "playing_stopped"
	}
	return "unknown"
}

type Trigger int

const (
	TriggerRecord Trigger = iota
	TriggerPlay
	TriggerPlaybackFinished
)

func (t Trigger) String() string {
	switch t {
	case TriggerRecord:
		return "record"
	case TriggerPlay:
		return "play"
	case TriggerPlaybackFinished:
		return "playback_finished"
	}
	return "unknown"
}

// Icon is what the record button shows.
type Icon int

const (
	IconRecord Icon = iota
	IconStop
)

func (i Icon) String() string {
	if i == IconStop {
		return "stop"
	}
	return "record"
}

// TimerModeFor picks the label mode for a state.
func TimerModeFor(s State) timer.Mode {
	switch s {
	case NotInitiated, Recording:
		return timer.ModeElapsed
	}
	return timer.ModeRemaining
}
