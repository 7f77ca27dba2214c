// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

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

// keySetOptions is the set of available options for the remote key sets
type keySetOptions struct {
	withCAPEM string
}

func keySetDefaults() keySetOptions {
	return keySetOptions{}
}

func getKeySetOpts(opt ...Option) keySetOptions {
	opts := keySetDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithCAPEM provides PEM encoded root certificates used to verify the
// server certificate when fetching remote keys.
func WithCAPEM(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*keySetOptions); ok {
			o.withCAPEM = caPEM
		}
	}
}
