package zurg

import (
	"errors"
	"fmt"
)

// Kind partitions client failures by how callers should react to them.
type Kind uint8

const (
	// KindNetwork is a transient transport failure (connect, timeout).
	// The client retries these a bounded number of times.
	KindNetwork Kind = iota + 1
	// KindAuth means the credentials were rejected. Never retried.
	KindAuth
	// KindProtocol is a malformed or unexpected response. Never retried.
	KindProtocol
	// KindNotFound means the item vanished between listing and repair.
	// An expected race, reported as informational by callers.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindProtocol:
		return "protocol"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a client failure tagged with its Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("zurg %s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("zurg %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err, anywhere in its chain, is a client error
// of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsNetwork(err error) bool  { return IsKind(err, KindNetwork) }
func IsAuth(err error) bool     { return IsKind(err, KindAuth) }
func IsProtocol(err error) bool { return IsKind(err, KindProtocol) }
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }
