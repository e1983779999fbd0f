package session

import "github.com/qfwfq/corespot/internal/apierr"

// Kind is one of the error kinds surfaced to the embedding thread
// (spec.md §7). Aliased from internal/apierr so internal/orchestrate can
// construct the same concrete error type without importing session.
type Kind = apierr.Kind

const (
	KindOK                = apierr.KindOK
	KindIsLoading         = apierr.KindIsLoading
	KindBadAPIVersion     = apierr.KindBadAPIVersion
	KindBadUserAgent      = apierr.KindBadUserAgent
	KindBadApplicationKey = apierr.KindBadApplicationKey
	KindAPIInitFailed     = apierr.KindAPIInitFailed
	KindInvalidIndata     = apierr.KindInvalidIndata
	KindResourceNotLoaded = apierr.KindResourceNotLoaded
	KindTrackNotPlayable  = apierr.KindTrackNotPlayable
	KindOtherTransient    = apierr.KindOtherTransient
	KindOtherPermanent    = apierr.KindOtherPermanent
)

// Error pairs a Kind with a human-readable message, and is what every
// synchronously-returned embedding API error and every completed request's
// Err field carries (spec.md §7 "Propagation policy").
type Error = apierr.Error

// newError builds an *Error, the only constructor session/orchestrate code
// should use so every error surfaced to the embedding carries a Kind.
func newError(k Kind, format string, args ...any) *Error {
	return apierr.New(k, format, args...)
}

// Sentinel errors for errors.Is comparisons against a completed request's
// Err or session_login's synchronous return.
var (
	ErrIsLoading         = apierr.ErrIsLoading
	ErrBadAPIVersion     = apierr.ErrBadAPIVersion
	ErrBadUserAgent      = apierr.ErrBadUserAgent
	ErrBadApplicationKey = apierr.ErrBadApplicationKey
	ErrAPIInitFailed     = apierr.ErrAPIInitFailed
	ErrInvalidIndata     = apierr.ErrInvalidIndata
	ErrResourceNotLoaded = apierr.ErrResourceNotLoaded
	ErrTrackNotPlayable  = apierr.ErrTrackNotPlayable
	ErrOtherTransient    = apierr.ErrOtherTransient
	ErrOtherPermanent    = apierr.ErrOtherPermanent
)
