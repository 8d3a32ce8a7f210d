package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one failure class of the authorization pipeline. Its string
// value is the machine-readable code sent to clients.
type Kind string

const (
	KindAuthorizationHeaderInvalid Kind = "authorization_header_invalid"
	KindTokenMalformed             Kind = "token_malformed"
	KindUnknownSigningKey          Kind = "unknown_signing_key"
	KindInvalidSignature           Kind = "invalid_signature"
	KindTokenExpired               Kind = "token_expired"
	KindInvalidClaims              Kind = "invalid_claims"
	KindPermissionsClaimMissing    Kind = "permissions_claim_missing"
	KindPermissionDenied           Kind = "permission_denied"
	KindKeySourceUnavailable       Kind = "key_source_unavailable"
)

// Status returns the HTTP status the boundary reports for the kind.
func (k Kind) Status() int {
	switch k {
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindPermissionsClaimMissing:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

// AuthError is a typed authorization failure. Two AuthErrors match under
// errors.Is when their kinds are equal.
type AuthError struct {
	Kind        Kind
	Description string
	Err         error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// Unwrap implements errors.Unwrap
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Status returns the HTTP status code for the error.
func (e *AuthError) Status() int {
	return e.Kind.Status()
}

// Code returns the machine-readable error code.
func (e *AuthError) Code() string {
	return string(e.Kind)
}

func newError(kind Kind, description string, err error) *AuthError {
	return &AuthError{Kind: kind, Description: description, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrAuthorizationHeaderInvalid = newError(KindAuthorizationHeaderInvalid, "authorization header is invalid", nil)
	ErrTokenMalformed             = newError(KindTokenMalformed, "token is malformed", nil)
	ErrUnknownSigningKey          = newError(KindUnknownSigningKey, "unable to find the appropriate key", nil)
	ErrInvalidSignature           = newError(KindInvalidSignature, "token signature is invalid", nil)
	ErrTokenExpired               = newError(KindTokenExpired, "token expired", nil)
	ErrInvalidClaims              = newError(KindInvalidClaims, "incorrect claims, check the audience and issuer", nil)
	ErrPermissionsClaimMissing    = newError(KindPermissionsClaimMissing, "permissions not included in token", nil)
	ErrPermissionDenied           = newError(KindPermissionDenied, "permission not found", nil)
	ErrKeySourceUnavailable       = newError(KindKeySourceUnavailable, "unable to fetch signing keys", nil)
)

// AsAuthError extracts the AuthError carried by err, if any.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
