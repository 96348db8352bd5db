package session

import (
	"fmt"
	"testing"

	"memo/timer"
)

func effectNamesOf(effects []Effect) string {
	return fmt.Sprint(effects)
}

func TestTransitionTable(t *testing.T) {
	granted := Facts{PermissionGranted: true}
	tests := []struct {
		from    State
		trigger Trigger
		facts   Facts
		to      State
		effects string
	}{
		{NotInitiated, TriggerRecord, granted, Recording,
			"[stop_playback clear_buffer start_capture start_timer(elapsed) set_icon(stop)]"},
		{NotInitiated, TriggerRecord, Facts{}, NotInitiated,
			"[stop_playback surface(permission_denied)]"},
		{NotInitiated, TriggerPlay, Facts{}, NotInitiated,
			"[surface(nothing_recorded)]"},
		{Recording, TriggerRecord, Facts{}, RecordingStopped,
			"[stop_playback stop_capture stop_timer set_icon(record)]"},
		{Recording, TriggerPlay, Facts{}, Recording,
			"[surface(recording_in_progress)]"},
		{RecordingStopped, TriggerPlay, Facts{}, Playing,
			"[materialize start_playback start_timer(remaining) start_sampler]"},
		{RecordingStopped, TriggerPlay, Facts{Materialized: true}, Playing,
			"[start_playback start_timer(remaining) start_sampler]"},
		{RecordingStopped, TriggerRecord, Facts{}, Recording,
			"[stop_playback clear_buffer start_capture start_timer(elapsed) set_icon(stop)]"},
		{Playing, TriggerPlay, Facts{Materialized: true}, Playing, "[]"},
		{Playing, TriggerRecord, Facts{}, Recording,
			"[stop_playback stop_timer stop_sampler clear_buffer start_capture start_timer(elapsed) set_icon(stop)]"},
		{Playing, TriggerPlaybackFinished, Facts{}, PlayingStopped,
			"[stop_timer stop_sampler]"},
		{PlayingStopped, TriggerPlay, Facts{Materialized: true}, Playing,
			"[start_playback start_timer(remaining) start_sampler]"},
		{PlayingStopped, TriggerRecord, Facts{}, Recording,
			"[stop_playback clear_buffer start_capture start_timer(elapsed) set_icon(stop)]"},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s/%s", tt.from, tt.trigger)
		t.Run(name, func(t *testing.T) {
			to, effects := Transition(tt.from, tt.trigger, tt.facts)
			if to != tt.to {
				t.Errorf("state = %s, want %s", to, tt.to)
			}
			if got := effectNamesOf(effects); got != tt.effects {
				t.Errorf("effects = %s\nwant      %s", got, tt.effects)
			}
		})
	}
}

func TestPlaybackFinishedIgnoredOutsidePlaying(t *testing.T) {
	for _, s := range []State{NotInitiated, Recording, RecordingStopped, PlayingStopped} {
		to, effects := Transition(s, TriggerPlaybackFinished, Facts{})
		if to != s || len(effects) != 0 {
			t.Errorf("%s: finished moved to %s with %v", s, to, effects)
		}
	}
}

func TestEveryRecordTapStopsPlaybackFirst(t *testing.T) {
	for _, s := range []State{NotInitiated, Recording, RecordingStopped, Playing, PlayingStopped} {
		for _, f := range []Facts{{}, {PermissionGranted: true}} {
			_, effects := Transition(s, TriggerRecord, f)
			if len(effects) == 0 || effects[0].Kind != EffectStopPlayback {
				t.Errorf("%s: record effects %v do not start with stop_playback", s, effects)
			}
		}
	}
}

func TestCaptureStartsOnlyAfterClear(t *testing.T) {
	for _, s := range []State{NotInitiated, RecordingStopped, Playing, PlayingStopped} {
		_, effects := Transition(s, TriggerRecord, Facts{PermissionGranted: true})
		cleared := false
		for _, e := range effects {
			if e.Kind == EffectClearBuffer {
				cleared = true
			}
			if e.Kind == EffectStartCapture && !cleared {
				t.Errorf("%s: capture started before buffer cleared: %v", s, effects)
			}
		}
	}
}

func TestTimerModeFor(t *testing.T) {
	want := map[State]timer.Mode{
		NotInitiated:     timer.ModeElapsed,
		Recording:        timer.ModeElapsed,
		RecordingStopped: timer.ModeRemaining,
		Playing:          timer.ModeRemaining,
		PlayingStopped:   timer.ModeRemaining,
	}
	for s, m := range want {
		if got := TimerModeFor(s); got != m {
			t.Errorf("TimerModeFor(%s) = %s, want %s", s, got, m)
		}
	}
}
