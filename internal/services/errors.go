package services

import "fmt"

// Kind classifies a grant failure. Every failure the grant engine can
// produce maps to exactly one Kind, and the HTTP boundary maps each
// Kind to a transport status exactly once (see handlers.WriteOAuthError).
type Kind int

const (
	// KindValidation is a bad, missing, or mismatched parameter (client fault).
	KindValidation Kind = iota + 1
	// KindInvalidClient is a failed client identification or authentication.
	KindInvalidClient
	// KindInvalidGrant is an unknown, consumed, or mismatched code/token.
	KindInvalidGrant
	// KindExpiredGrant is a code past its expiry; the row is deleted as a
	// side effect even though the request fails.
	KindExpiredGrant
	// KindAuthRequired means no principal is bound to the request. This is
	// a deliberate suspension (redirect to login), not a failure.
	KindAuthRequired
	// KindAuthorizationPending is the device flow's "retry later" signal.
	KindAuthorizationPending
	// KindStoreFault is an unavailable or corrupt store; never retried.
	KindStoreFault
)

// Error is the single tagged error value for all grant failures.
// Code is the wire-level error string (RFC 6749 / RFC 8628); Detail is
// a human-readable explanation safe to return to the client.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// Is matches on Kind and, when the target specifies one, Code. This
// keeps errors.Is(err, ErrAuthorizationPending)-style checks working at
// the boundary without sentinel proliferation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is at the boundary.
var (
	ErrValidation           = &Error{Kind: KindValidation, Code: "invalid_request"}
	ErrInvalidClient        = &Error{Kind: KindInvalidClient, Code: "invalid_client"}
	ErrInvalidGrant         = &Error{Kind: KindInvalidGrant, Code: "invalid_grant"}
	ErrExpiredGrant         = &Error{Kind: KindExpiredGrant, Code: "expired_token"}
	ErrAuthRequired         = &Error{Kind: KindAuthRequired, Code: "login_required"}
	ErrAuthorizationPending = &Error{Kind: KindAuthorizationPending, Code: "authorization_pending"}
	ErrAlreadyApproved      = &Error{Kind: KindValidation, Code: "already_approved"}
	ErrStoreFault           = &Error{Kind: KindStoreFault, Code: "server_error"}
)

func validationErr(detail string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_request", Detail: detail}
}

func invalidClientErr(detail string) *Error {
	return &Error{Kind: KindInvalidClient, Code: "invalid_client", Detail: detail}
}

func invalidGrantErr(detail string) *Error {
	return &Error{Kind: KindInvalidGrant, Code: "invalid_grant", Detail: detail}
}

func expiredGrantErr(detail string) *Error {
	return &Error{Kind: KindExpiredGrant, Code: "expired_token", Detail: detail}
}

func authRequiredErr() *Error {
	return &Error{Kind: KindAuthRequired, Code: "login_required"}
}

func authorizationPendingErr() *Error {
	return &Error{Kind: KindAuthorizationPending, Code: "authorization_pending"}
}

func storeFaultErr(err error) *Error {
	return &Error{
		Kind:   KindStoreFault,
		Code:   "server_error",
		Detail: fmt.Sprintf("credential store failure: %v", err),
	}
}
