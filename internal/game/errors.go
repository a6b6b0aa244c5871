package game

import "errors"

// Kind classifies domain errors so transports can map them to status codes
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindResourceExhausted Kind = "resource_exhausted"
	KindUnauthenticated   Kind = "unauthenticated"
)

// Error is a domain error. Code is machine-readable, Message is user-facing.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same Code. A target without Code matches any
// error of its Kind, so errors.Is(err, ErrNotFound) works for every not-found.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// Kind sentinels
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
)

var (
	ErrInvalidNickname    = &Error{Kind: KindInvalidInput, Code: "invalid-nickname", Message: "nickname is invalid"}
	ErrInvalidCode        = &Error{Kind: KindInvalidInput, Code: "invalid-code", Message: "room code is invalid"}
	ErrNotEnoughPlayers   = &Error{Kind: KindInvalidInput, Code: "not-enough-players", Message: "at least 3 players are needed to start a round"}
	ErrRoomNotFound       = &Error{Kind: KindNotFound, Code: "room-not-found", Message: "room not found"}
	ErrNotHost            = &Error{Kind: KindForbidden, Code: "not-host", Message: "only the host can advance the round"}
	ErrRoomAccessDenied   = &Error{Kind: KindForbidden, Code: "room-access-denied", Message: "you are not a player of this room"}
	ErrRoomFull           = &Error{Kind: KindConflict, Code: "room-full", Message: "room is full"}
	ErrNicknameTaken      = &Error{Kind: KindConflict, Code: "nickname-taken", Message: "that nickname is already in use in this room"}
	ErrCodeSpaceExhausted = &Error{Kind: KindResourceExhausted, Code: "code-generation-failed", Message: "could not generate a room code"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Code: "unauthenticated", Message: "authentication failed"}
)

// KindOf returns the kind of a domain error, or "" for any other error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
