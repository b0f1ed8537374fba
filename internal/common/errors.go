package common

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. The set is closed: callers switch on it to pick
// an HTTP status and never need to parse messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means no row matched.
	KindNotFound
	// KindInvalidCredential means a presented sign-in code did not match.
	KindInvalidCredential
	// KindDuplicateIdentity is a uniqueness violation on user creation.
	KindDuplicateIdentity
	// KindUnknownOperation is a dispatch miss.
	KindUnknownOperation
	// KindInvalidParameter means a declared parameter was missing or mistyped.
	KindInvalidParameter
	// KindOperationFailed means the store rejected a statement.
	KindOperationFailed
	// KindNotificationFailed means the notifier could not deliver a message.
	KindNotificationFailed
	// KindMintFailed wraps any failure while minting a bearer token.
	KindMintFailed
	// KindUnauthorized is the verifier verdict. It is never raised by the
	// verifier itself, only by transports that need an error value.
	KindUnauthorized
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown error",
	KindNotFound:           "not found",
	KindInvalidCredential:  "invalid credential",
	KindDuplicateIdentity:  "duplicate identity",
	KindUnknownOperation:   "unknown operation",
	KindInvalidParameter:   "invalid parameter",
	KindOperationFailed:    "operation failed",
	KindNotificationFailed: "notification failed",
	KindMintFailed:         "mint failed",
	KindUnauthorized:       "unauthorized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a tagged error carrying structured context.
//
// Op names the operation that failed (e.g. "signin.IssueCode"), Detail holds
// extra context such as an operation name or a parameter, Err is the cause.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. Sentinels below
// carry only a kind, so errors.Is(err, ErrNotFound) matches any NotFound in
// the chain regardless of Op or Detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidCredential  = &Error{Kind: KindInvalidCredential}
	ErrDuplicateIdentity  = &Error{Kind: KindDuplicateIdentity}
	ErrUnknownOperation   = &Error{Kind: KindUnknownOperation}
	ErrInvalidParameter   = &Error{Kind: KindInvalidParameter}
	ErrOperationFailed    = &Error{Kind: KindOperationFailed}
	ErrNotificationFailed = &Error{Kind: KindNotificationFailed}
	ErrMintFailed         = &Error{Kind: KindMintFailed}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
)

// E builds a tagged error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef builds a tagged error with a formatted detail.
func Ef(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the most specific kind found in err's chain, i.e. the kind
// of the innermost *Error. It returns KindUnknown for foreign errors.
func KindOf(err error) Kind {
	kind := KindUnknown
	for err != nil {
		if e, ok := err.(*Error); ok {
			kind = e.Kind
		}
		err = errors.Unwrap(err)
	}
	return kind
}
