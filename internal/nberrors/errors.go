// Package nberrors defines the closed set of error kinds used across the
// NetBIOS name-resolution core.
package nberrors

import (
	"errors"
	"fmt"
)

// Kind classifies a resolution failure. The set is closed: every public
// operation in this module returns an error whose Kind is one of these
// values, or nil.
type Kind int

const (
	// NotFound means the lookup completed negatively: WINS rcode 0x03, an
	// empty result set, or exhaustion of all configured backends.
	NotFound Kind = iota
	// InvalidAddress means a target address had an unsupported family, e.g.
	// IPv6 where NetBIOS requires IPv4.
	InvalidAddress
	// InvalidParameter means the name type is incompatible with the method,
	// NBT is administratively disabled, or the resolve order is ["NULL"].
	InvalidParameter
	// Timeout means the caller's deadline elapsed before any accepted reply.
	Timeout
	// Io wraps an underlying socket or resolver error.
	Io
	// Protocol means a packet failed to parse or build.
	Protocol
	// NoLogonServers means DC list assembly produced zero entries.
	NoLogonServers
	// OutOfMemory means an allocation failed; propagated immediately.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case InvalidAddress:
		return "invalid address"
	case InvalidParameter:
		return "invalid parameter"
	case Timeout:
		return "timeout"
	case Io:
		return "io error"
	case Protocol:
		return "protocol error"
	case NoLogonServers:
		return "no logon servers"
	case OutOfMemory:
		return "out of memory"
	default:
		return "unknown error"
	}
}

// Error is the single structured error type returned by this module. Op
// names the operation that failed (e.g. "nbquery.NameQuery"); Err, when
// present, is the wrapped underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, nberrors.ErrNotFound) by comparing Kind against
// the Kind carried by one of the sentinel errors below.
func (e *Error) Is(target error) bool {
	var k *kindSentinel
	if errors.As(target, &k) {
		return e.Kind == k.kind
	}
	return false
}

type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return k.kind.String() }

// Sentinels usable with errors.Is, e.g. errors.Is(err, nberrors.ErrNotFound).
var (
	ErrNotFound         error = &kindSentinel{NotFound}
	ErrInvalidAddress   error = &kindSentinel{InvalidAddress}
	ErrInvalidParameter error = &kindSentinel{InvalidParameter}
	ErrTimeout          error = &kindSentinel{Timeout}
	ErrIo               error = &kindSentinel{Io}
	ErrProtocol         error = &kindSentinel{Protocol}
	ErrNoLogonServers   error = &kindSentinel{NoLogonServers}
	ErrOutOfMemory      error = &kindSentinel{OutOfMemory}
)

// New constructs an *Error of the given kind for operation op.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap constructs an *Error of the given kind for operation op, wrapping
// cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and ok=true.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
