package game

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so transports can map it to a status
// without string matching.
type Kind int

const (
	// KindInvalid is malformed input: bad card id, bad suit, missing fields
	KindInvalid Kind = iota
	// KindPhase is an action that is not valid in the current phase
	KindPhase
	// KindPermission is the wrong seat acting: not your turn, not the trumper
	KindPermission
	// KindRule is a rule violation: bid too low, must follow suit
	KindRule
	// KindNotFound is an unknown game code or player id
	KindNotFound
)

// Error is a rejected action. The game is unchanged whenever one is returned.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func errInvalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func errPhasef(format string, args ...any) *Error {
	return &Error{Kind: KindPhase, Msg: fmt.Sprintf(format, args...)}
}

func errPermissionf(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Msg: fmt.Sprintf(format, args...)}
}

func errRulef(format string, args ...any) *Error {
	return &Error{Kind: KindRule, Msg: fmt.Sprintf(format, args...)}
}

func errNotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an engine error, defaulting to KindInvalid
// for errors that did not come from the engine
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalid
}
