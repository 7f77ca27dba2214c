// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// TokenResponse is the token endpoint's answer to a password or refresh
// grant.
type TokenResponse struct {
	AccessToken  AccessToken
	RefreshToken RefreshToken

	// ExpiresIn is the access token lifetime. It is zero when the provider
	// didn't send one.
	ExpiresIn time.Duration
}

// TokenEndpoint calls the provider's {Host}/oauth2/token endpoint.
type TokenEndpoint struct {
	config *Config
	client *http.Client
}

// NewTokenEndpoint creates a TokenEndpoint for c using c.HttpClient().
func NewTokenEndpoint(c *Config) (*TokenEndpoint, error) {
	const op = "oidc.NewTokenEndpoint"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	client, err := c.HttpClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	return &TokenEndpoint{config: c, client: client}, nil
}

// PasswordGrant exchanges the resource owner's credentials for a token.
// The client id is sent in the form body and no client authentication
// header is sent.
func (e *TokenEndpoint) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	const op = "TokenEndpoint.PasswordGrant"
	if username == "" {
		return nil, fmt.Errorf("%s: username is empty: %w", op, ErrInvalidParameter)
	}
	oauth2Config := oauth2.Config{
		ClientID: e.config.ClientId,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.config.Endpoints().TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tok, err := oauth2Config.PasswordCredentialsToken(e.clientContext(ctx), username, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, toTransportError(err))
	}
	return newTokenResponse(tok), nil
}

// RefreshGrant exchanges refreshToken for a new access token. The client
// authenticates with HTTP Basic auth as RFC 6749 section 2.3.1 describes:
// the client id and secret are form-urlencoded before being joined and
// base64 encoded. Credentials made of unreserved characters encode exactly
// as base64(clientId:secret), others (for example "+", "/" or ":") are sent
// percent-encoded and the provider has to decode them.
func (e *TokenEndpoint) RefreshGrant(ctx context.Context, refreshToken RefreshToken) (*TokenResponse, error) {
	const op = "TokenEndpoint.RefreshGrant"
	if refreshToken == "" {
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrInvalidParameter)
	}
	oauth2Config := oauth2.Config{
		ClientID:     e.config.ClientId,
		ClientSecret: string(e.config.ClientSecret),
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.config.Endpoints().TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	// a token with only a refresh token is never valid, so the source always
	// asks the endpoint
	ts := oauth2Config.TokenSource(e.clientContext(ctx), &oauth2.Token{RefreshToken: string(refreshToken)})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, toTransportError(err))
	}
	return newTokenResponse(tok), nil
}

func (e *TokenEndpoint) clientContext(ctx context.Context) context.Context {
	return HttpClientContext(ctx, e.client)
}

func newTokenResponse(tok *oauth2.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken:  AccessToken(tok.AccessToken),
		RefreshToken: RefreshToken(tok.RefreshToken),
		ExpiresIn:    expiresIn(tok),
	}
}

// expiresIn returns the response's expires_in, falling back to the time
// left until Expiry.
func expiresIn(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra(ParamExpiresIn).(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return time.Until(tok.Expiry).Round(time.Second)
}

func toTransportError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &TransportError{StatusCode: re.Response.StatusCode, Err: err}
	}
	return &TransportError{Err: err}
}
