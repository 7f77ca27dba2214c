// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithNow provides an optional func for determining what the current time it
// is, for: Session, TokenStore
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if now == nil {
			return
		}
		switch v := o.(type) {
		case *sessionOptions:
			v.withNowFunc = now
		case *tokenStoreOptions:
			v.withNowFunc = now
		}
	}
}

// WithLogger provides an optional logger for: Config, Session, TokenStore,
// SilentRefreshChannel
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if l == nil {
			return
		}
		switch v := o.(type) {
		case *configOptions:
			v.withLogger = l
		case *sessionOptions:
			v.withLogger = l
		case *tokenStoreOptions:
			v.withLogger = l
		case *refreshChannelOptions:
			v.withLogger = l
		}
	}
}

// WithRedirectUri provides an optional redirect URI for: Config, LoginURL.
// LoginURL uses it to override the configured RedirectUri.
func WithRedirectUri(uri string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *configOptions:
			v.withRedirectUri = uri
		case *loginURLOptions:
			v.withRedirectUri = uri
		}
	}
}
