// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package metrics

import "github.com/prometheus/client_golang/prometheus"

// DefaultNamespace is the namespace of every metric when none is provided.
const DefaultNamespace = "capimplicit"

// DefaultSubsystem is the subsystem of every metric when none is provided.
const DefaultSubsystem = "session"

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

// collectorOptions is the set of available options for NewCollector
type collectorOptions struct {
	withRegisterer  prometheus.Registerer
	withNamespace   string
	withSubsystem   string
	withConstLabels prometheus.Labels
}

func collectorDefaults() collectorOptions {
	return collectorOptions{
		withRegisterer: prometheus.DefaultRegisterer,
		withNamespace:  DefaultNamespace,
		withSubsystem:  DefaultSubsystem,
	}
}

func getCollectorOpts(opt ...Option) collectorOptions {
	opts := collectorDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithRegisterer provides the registry the metrics are registered with.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o interface{}) {
		if o, ok := o.(*collectorOptions); ok && r != nil {
			o.withRegisterer = r
		}
	}
}

// WithNamespace provides the metrics namespace.
func WithNamespace(ns string) Option {
	return func(o interface{}) {
		if o, ok := o.(*collectorOptions); ok {
			o.withNamespace = ns
		}
	}
}

// WithSubsystem provides the metrics subsystem.
func WithSubsystem(s string) Option {
	return func(o interface{}) {
		if o, ok := o.(*collectorOptions); ok {
			o.withSubsystem = s
		}
	}
}

// WithConstLabels provides labels added to every metric.
func WithConstLabels(l prometheus.Labels) Option {
	return func(o interface{}) {
		if o, ok := o.(*collectorOptions); ok {
			o.withConstLabels = l
		}
	}
}
