// Package apierr holds the error Kind taxonomy spec.md §7 defines, shared
// between session (which surfaces it to the embedding thread) and
// orchestrate (which needs to construct a Kind-tagged error from a
// collaborator deep in the request queue, without importing session and
// creating an import cycle).
package apierr

import "fmt"

// Kind is one of the error kinds surfaced to the embedding thread
// (spec.md §7).
type Kind int

const (
	KindOK Kind = iota
	KindIsLoading
	KindBadAPIVersion
	KindBadUserAgent
	KindBadApplicationKey
	KindAPIInitFailed
	KindInvalidIndata
	KindResourceNotLoaded
	KindTrackNotPlayable
	KindOtherTransient
	KindOtherPermanent
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindIsLoading:
		return "IS_LOADING"
	case KindBadAPIVersion:
		return "BAD_API_VERSION"
	case KindBadUserAgent:
		return "BAD_USER_AGENT"
	case KindBadApplicationKey:
		return "BAD_APPLICATION_KEY"
	case KindAPIInitFailed:
		return "API_INIT_FAILED"
	case KindInvalidIndata:
		return "INVALID_INDATA"
	case KindResourceNotLoaded:
		return "RESOURCE_NOT_LOADED"
	case KindTrackNotPlayable:
		return "TRACK_NOT_PLAYABLE"
	case KindOtherTransient:
		return "OTHER_TRANSIENT"
	case KindOtherPermanent:
		return "OTHER_PERMANENT"
	default:
		return "UNKNOWN"
	}
}

// Error pairs a Kind with a human-readable message, and is what every
// synchronously-returned embedding API error and every completed request's
// Err field carries (spec.md §7 "Propagation policy").
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// New builds an *Error, the only constructor session/orchestrate code
// should use so every error surfaced to the embedding carries a Kind.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Is lets errors.Is(err, ErrOtherPermanent) match any *Error of that kind,
// regardless of message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel errors for errors.Is comparisons against a completed request's
// Err or session_login's synchronous return.
var (
	ErrIsLoading         = &Error{Kind: KindIsLoading}
	ErrBadAPIVersion     = &Error{Kind: KindBadAPIVersion}
	ErrBadUserAgent      = &Error{Kind: KindBadUserAgent}
	ErrBadApplicationKey = &Error{Kind: KindBadApplicationKey}
	ErrAPIInitFailed     = &Error{Kind: KindAPIInitFailed}
	ErrInvalidIndata     = &Error{Kind: KindInvalidIndata}
	ErrResourceNotLoaded = &Error{Kind: KindResourceNotLoaded}
	ErrTrackNotPlayable  = &Error{Kind: KindTrackNotPlayable}
	ErrOtherTransient    = &Error{Kind: KindOtherTransient}
	ErrOtherPermanent    = &Error{Kind: KindOtherPermanent}
)
