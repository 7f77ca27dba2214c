package oidc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		root error
	}{
		{err: ErrMissingHost, root: ErrConfiguration},
		{err: ErrMissingClientId, root: ErrConfiguration},
		{err: ErrMissingScope, root: ErrConfiguration},
		{err: ErrMissingRedirectUri, root: ErrConfiguration},
		{err: ErrMalformedToken, root: ErrProtocol},
		{err: ErrMissingSubject, root: ErrProtocol},
		{err: ErrNonceMismatch, root: ErrProtocol},
		{err: ErrMissingSessionState, root: ErrProtocol},
		{err: ErrMalformedFragment, root: ErrProtocol},
		{err: ErrInvalidSignature, root: ErrProtocol},
		{err: ErrLoginFailed, root: ErrProtocol},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			wrapped := fmt.Errorf("op: %w", tt.err)
			assert.True(errors.Is(wrapped, tt.err))
			assert.True(errors.Is(wrapped, tt.root))
			assert.False(errors.Is(wrapped, ErrTransport))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	cause := errors.New("connection refused")

	noResponse := &TransportError{Err: cause}
	assert.Equal("token endpoint request failed: connection refused", noResponse.Error())
	assert.True(errors.Is(noResponse, ErrTransport))
	assert.True(errors.Is(noResponse, cause))

	unauthorized := fmt.Errorf("op: %w", &TransportError{StatusCode: 401, Err: cause})
	assert.True(errors.Is(unauthorized, ErrTransport))
	assert.False(errors.Is(unauthorized, ErrProtocol))
	var te *TransportError
	assert.True(errors.As(unauthorized, &te))
	assert.Equal(401, te.StatusCode)
	assert.Equal("token endpoint returned 401: connection refused", te.Error())
}
