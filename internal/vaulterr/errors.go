// Package vaulterr defines the error kinds reported by the vault engine.
//
// Every failure returned by the engine is an *Error carrying one of four
// kinds. Callers distinguish them with errors.Is against either a kind
// sentinel (ErrFormat, ErrCrypto, ErrState, ErrIO) or one of the specific
// sentinels below.
package vaulterr

import (
	"errors"
	"strings"
)

// Kind classifies an engine failure.
type Kind uint8

const (
	// Other is the zero kind; the engine never returns it.
	Other Kind = iota
	// Format means the file exists but is not an envelope this engine understands.
	Format
	// Crypto covers key derivation and authentication failures.
	Crypto
	// State means the operation is not legal in the current session state.
	State
	// IO covers filesystem failures.
	IO
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case Format:
		return "format"
	case Crypto:
		return "crypto"
	case State:
		return "state"
	case IO:
		return "io"
	default:
		return "other"
	}
}

// Error is the error type returned by the engine.
type Error struct {
	// Kind is the class of failure.
	Kind Kind
	// Op names the operation that failed, e.g. "unlock".
	Op string
	// Msg is the stable, user-presentable description.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	b.WriteString(msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind whose message is
// either empty (a kind sentinel) or equal to e's.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// Kind sentinels.
var (
	ErrFormat = &Error{Kind: Format}
	ErrCrypto = &Error{Kind: Crypto}
	ErrState  = &Error{Kind: State}
	ErrIO     = &Error{Kind: IO}
)

// Format errors.
var (
	ErrTooSmall           = &Error{Kind: Format, Msg: "vault file too small"}
	ErrBadMagic           = &Error{Kind: Format, Msg: "invalid vault file"}
	ErrUnsupportedVersion = &Error{Kind: Format, Msg: "unsupported vault file version"}
	ErrPayload            = &Error{Kind: Format, Msg: "invalid vault payload"}
	ErrBadEnvelope        = &Error{Kind: Format, Msg: "invalid envelope"}
)

// ErrAuth is the single crypto error. Key derivation and tag verification
// failures both report it so a wrong password looks like a damaged file.
var ErrAuth = &Error{Kind: Crypto, Msg: "wrong password or corrupted vault"}

// State errors.
var (
	ErrAlreadyExists = &Error{Kind: State, Msg: "vault already exists"}
	ErrNotFound      = &Error{Kind: State, Msg: "vault does not exist"}
	ErrLocked        = &Error{Kind: State, Msg: "vault is locked"}
	ErrMissingSalt   = &Error{Kind: State, Msg: "missing cached salt"}
	ErrSaltMismatch  = &Error{Kind: State, Msg: "salt mismatch"}
)

// E returns a copy of sentinel annotated with op and cause. The result still
// matches sentinel and its kind under errors.Is.
func E(op string, sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Op: op, Msg: sentinel.Msg, Err: cause}
}

// IOError wraps a filesystem failure.
func IOError(op string, cause error) *Error {
	return &Error{Kind: IO, Op: op, Msg: "filesystem error", Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
