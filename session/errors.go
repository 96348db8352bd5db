package session

import "errors"

// Kind classifies the failures a tap can surface to the user.
type Kind int

const (
	KindNone Kind = iota
	PermissionDenied
	EngineStartFailed
	DecodeFailed
	CreateFailed
	NothingRecorded
	RecordingInProgress
)

var kindInfo = map[Kind]struct{ name, message, action string }{
	PermissionDenied:    {"permission_denied", "Permission Denied", "Grant Permission"},
	EngineStartFailed:   {"engine_start_failed", "Couldn't start the Audio Engine", ""},
	DecodeFailed:        {"decode_failed", "Audio Player Error", ""},
	CreateFailed:        {"create_failed", "Couldn't create audio file", ""},
	NothingRecorded:     {"nothing_recorded", "Record an audio first", ""},
	RecordingInProgress: {"recording_in_progress", "Stop the recording first", ""},
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "none"
}

// Message is the alert text shown to the user.
func (k Kind) Message() string {
	return kindInfo[k].message
}

// Action names the button offered next to the alert, if any.
func (k Kind) Action() string {
	return kindInfo[k].action
}

// Alert is what the shell renders for a surfaced error.
type Alert struct {
	Kind    Kind
	Message string
	Action  string
}

func AlertFor(k Kind) Alert {
	return Alert{Kind: k, Message: k.Message(), Action: k.Action()}
}

// Error is returned by Record and Play when a tap was refused or failed.
// Two Errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Message() + ": " + e.Err.Error()
	}
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
	ErrEngineStartFailed   = &Error{Kind: EngineStartFailed}
	ErrDecodeFailed        = &Error{Kind: DecodeFailed}
	ErrCreateFailed        = &Error{Kind: CreateFailed}
	ErrNothingRecorded     = &Error{Kind: NothingRecorded}
	ErrRecordingInProgress = &Error{Kind: RecordingInProgress}

	ErrClosed = errors.New("session closed")
)

// KindOf returns the kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
