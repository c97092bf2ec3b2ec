package hostid

import (
	"errors"
	"fmt"
)

// Kind classifies why an identifier could not be derived.
type Kind int

const (
	KindUnknown Kind = iota

	// KindMissingIdentifierFile means the identifier file could not be opened.
	// Resolve recovers from it by falling back to the network address.
	KindMissingIdentifierFile

	// KindTruncatedIdentifierFile means the identifier file holds fewer than 4 bytes.
	KindTruncatedIdentifierFile

	// KindNoHostnameSource means neither hostname source could be read.
	KindNoHostnameSource

	// KindNoLoopbackInterface means interfaces could not be listed, or the
	// loopback interface is missing or has no IPv4 address.
	KindNoLoopbackInterface

	// KindMalformedAddress means the address is not 4 dot-separated decimal octets.
	KindMalformedAddress
)

func (k Kind) String() string {
	switch k {
	case KindMissingIdentifierFile:
		return "identifier file missing"
	case KindTruncatedIdentifierFile:
		return "identifier file truncated"
	case KindNoHostnameSource:
		return "no hostname configured"
	case KindNoLoopbackInterface:
		return "no loopback interface"
	case KindMalformedAddress:
		return "malformed address"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrMissingIdentifierFile   = &Error{Kind: KindMissingIdentifierFile}
	ErrTruncatedIdentifierFile = &Error{Kind: KindTruncatedIdentifierFile}
	ErrNoHostnameSource        = &Error{Kind: KindNoHostnameSource}
	ErrNoLoopbackInterface     = &Error{Kind: KindNoLoopbackInterface}
	ErrMalformedAddress        = &Error{Kind: KindMalformedAddress}
)

var (
	errNotFound = errors.New("interface not found")
	errNoIPv4   = errors.New("interface has no IPv4 address")
)

// Error reports a failed precondition of the fallback chain.
type Error struct {
	Kind Kind
	Path string // file, interface or address involved, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
