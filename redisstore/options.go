// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package redisstore

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

// storeOptions is the set of available options for Store functions
type storeOptions struct {
	withPrefix string
	withTTL    time.Duration
	withLogger hclog.Logger
}

// storeDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func storeDefaults() storeOptions {
	return storeOptions{
		withPrefix: DefaultPrefix,
		withLogger: hclog.NewNullLogger(),
	}
}

// getStoreOpts gets the store defaults and applies the opt overrides passed
// in
func getStoreOpts(opt ...Option) storeOptions {
	opts := storeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional key prefix. Stores with different prefixes
// on one server hold separate sessions.
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withPrefix = prefix
		}
	}
}

// WithTTL provides an optional expiration for every written key. Zero, the
// default, means keys never expire.
func WithTTL(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withTTL = ttl
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
