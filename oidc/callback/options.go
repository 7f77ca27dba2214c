// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import "github.com/hashicorp/go-hclog"

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

// callbackOptions is the set of available options for the callbacks
type callbackOptions struct {
	withParentOrigin string
	withLogger       hclog.Logger
}

func callbackDefaults() callbackOptions {
	return callbackOptions{withLogger: hclog.NewNullLogger()}
}

func getCallbackOpts(opt ...Option) callbackOptions {
	opts := callbackDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithParentOrigin provides the origin of the window which embeds the silent
// refresh frame, for example "https://app.example.com".
func WithParentOrigin(origin string) Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok {
			o.withParentOrigin = origin
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
