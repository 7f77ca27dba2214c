// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package metrics exports oidc.Session events as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/prometheus/client_golang/prometheus"
)

// Error kinds used as the "kind" label of the errors counter.
const (
	KindConfiguration = "configuration"
	KindProtocol      = "protocol"
	KindTransport     = "transport"
	KindInvalidated   = "invalidated"
	KindOther         = "other"
)

// Collector is an oidc.Observer which counts session events. Register it
// with oidc.WithObserver or Session.AddObserver.
type Collector struct {
	events          *prometheus.CounterVec
	errors          *prometheus.CounterVec
	lastTokenIssued prometheus.Gauge
}

// ensure that Collector implements the oidc.Observer interface
var _ oidc.Observer = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics.
//
// Supported options: WithRegisterer, WithNamespace, WithSubsystem,
// WithConstLabels
func NewCollector(opt ...Option) (*Collector, error) {
	const op = "metrics.NewCollector"
	opts := getCollectorOpts(opt...)
	if opts.withNamespace == "" {
		return nil, fmt.Errorf("%s: namespace is empty: %w", op, oidc.ErrInvalidParameter)
	}
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.withNamespace,
			Subsystem:   opts.withSubsystem,
			Name:        "events_total",
			Help:        "Total number of session events by type.",
			ConstLabels: opts.withConstLabels,
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.withNamespace,
			Subsystem:   opts.withSubsystem,
			Name:        "errors_total",
			Help:        "Total number of session errors by kind.",
			ConstLabels: opts.withConstLabels,
		}, []string{"kind"}),
		lastTokenIssued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.withNamespace,
			Subsystem:   opts.withSubsystem,
			Name:        "last_token_issued_timestamp_seconds",
			Help:        "Unix time a token was last issued or resumed.",
			ConstLabels: opts.withConstLabels,
		}),
	}
	registered := make([]prometheus.Collector, 0, 3)
	for _, m := range []prometheus.Collector{c.events, c.errors, c.lastTokenIssued} {
		if err := opts.withRegisterer.Register(m); err != nil {
			for _, r := range registered {
				opts.withRegisterer.Unregister(r)
			}
			return nil, fmt.Errorf("%s: unable to register metric: %w", op, err)
		}
		registered = append(registered, m)
	}
	return c, nil
}

// Observe implements oidc.Observer.
func (c *Collector) Observe(e oidc.Event) {
	c.events.WithLabelValues(string(e.Type)).Inc()
	switch e.Type {
	case oidc.EventTokenIssued:
		c.lastTokenIssued.SetToCurrentTime()
	case oidc.EventError:
		c.errors.WithLabelValues(ErrorKind(e.Err)).Inc()
	}
}

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, oidc.ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, oidc.ErrProtocol):
		return KindProtocol
	case errors.Is(err, oidc.ErrTransport):
		return KindTransport
	case errors.Is(err, oidc.ErrSessionInvalidated):
		return KindInvalidated
	default:
		return KindOther
	}
}
