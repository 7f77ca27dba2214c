// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidCACert     = errors.New("invalid CA certificate")
	ErrIdGeneratorFailed = errors.New("id generation failed")
	ErrNotFound          = errors.New("not found")

	// ErrConfiguration is the root of every configuration violation. They
	// are raised by NewConfig and are never recovered from.
	ErrConfiguration      = errors.New("configuration error")
	ErrMissingHost        = fmt.Errorf("missing the required oauth2 host parameter: %w", ErrConfiguration)
	ErrMissingClientId    = fmt.Errorf("missing the required oauth2 clientId parameter: %w", ErrConfiguration)
	ErrMissingScope       = fmt.Errorf("missing the required oauth2 scope parameter: %w", ErrConfiguration)
	ErrMissingRedirectUri = fmt.Errorf("missing redirectUri required parameter: %w", ErrConfiguration)

	// ErrProtocol is the root of every failure while processing a provider
	// response. It is fatal for the login attempt it was raised in.
	ErrProtocol            = errors.New("protocol error")
	ErrMalformedToken      = fmt.Errorf("malformed token: %w", ErrProtocol)
	ErrMissingSubject      = fmt.Errorf("missing sub in JWT: %w", ErrProtocol)
	ErrNonceMismatch       = fmt.Errorf("nonce does not match: %w", ErrProtocol)
	ErrMissingSessionState = fmt.Errorf("missing session state: %w", ErrProtocol)
	ErrMalformedFragment   = fmt.Errorf("malformed fragment: %w", ErrProtocol)
	ErrInvalidSignature    = fmt.Errorf("invalid signature: %w", ErrProtocol)
	ErrLoginFailed         = fmt.Errorf("login failed: %w", ErrProtocol)

	// ErrSessionInvalidated is returned when the session was invalidated
	// while a refresh was in flight. The refresh result is dropped.
	ErrSessionInvalidated = errors.New("session invalidated")

	// ErrSessionDone is returned by every operation of a Session after its
	// Done was called.
	ErrSessionDone = errors.New("session done")

	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport error")
)

// TransportError is returned when the token endpoint could not be reached
// or answered with a non-2xx status. StatusCode is zero when no response
// was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token endpoint request failed: %s", e.Err)
	}
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// AuthenErrorResponse represents an oauth2 error response returned in the
// fragment. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string
	Description string
	Uri         string
}
