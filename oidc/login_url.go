// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ResponseTypeImplicit requests both an access_token and an id_token in the
// returned fragment.
const ResponseTypeImplicit = "token id_token"

// LoginURL composes the provider's authorize URL for an implicit flow login
// bound to nonce. It makes no network calls.
//
// Supported options: WithRedirectUri, WithPrompt
func LoginURL(c *Config, nonce string, opt ...Option) (string, error) {
	const op = "oidc.LoginURL"
	if c == nil {
		return "", fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if nonce == "" {
		return "", fmt.Errorf("%s: nonce is empty: %w", op, ErrInvalidParameter)
	}
	opts := getLoginURLOpts(opt...)
	redirectUri := c.RedirectUri
	if opts.withRedirectUri != "" {
		redirectUri = opts.withRedirectUri
	}
	if redirectUri == "" {
		return "", fmt.Errorf("%s: redirect uri is empty: %w", op, ErrInvalidParameter)
	}

	oauth2Config := oauth2.Config{
		ClientID:    c.ClientId,
		RedirectURL: redirectUri,
		Endpoint:    oauth2.Endpoint{AuthURL: c.Endpoints().AuthURL},
		Scopes:      []string{c.Scope},
	}
	authOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", ResponseTypeImplicit),
		oidc.Nonce(nonce),
	}
	if opts.withPrompt != "" {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("prompt", opts.withPrompt))
	}
	// the implicit flow request carries no state, the nonce binds the response
	return oauth2Config.AuthCodeURL("", authOpts...), nil
}

// loginURLOptions is the set of available options for LoginURL
type loginURLOptions struct {
	withRedirectUri string
	withPrompt      string
}

func loginURLDefaults() loginURLOptions {
	return loginURLOptions{}
}

func getLoginURLOpts(opt ...Option) loginURLOptions {
	opts := loginURLDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrompt provides an optional "prompt" parameter for LoginURL. Silent
// refreshes use "none".
func WithPrompt(prompt string) Option {
	return func(o interface{}) {
		if o, ok := o.(*loginURLOptions); ok {
			o.withPrompt = prompt
		}
	}
}
