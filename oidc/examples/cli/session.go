// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/capimplicit/metrics"
	"github.com/hashicorp/capimplicit/oidc"
	"github.com/hashicorp/capimplicit/redisstore"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// env is what every session command works with. close must be called when
// the command is done.
type env struct {
	config  *oidc.Config
	session *oidc.Session
	browser *headlessBrowser
	logger  hclog.Logger
	closers []func() error
}

func (f *rootFlags) newEnv(ctx context.Context) (*env, error) {
	const op = "newEnv"
	logger := f.logger()
	c, err := oidc.LoadConfigFile(f.configPath, oidc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e := &env{config: c, logger: logger}

	var storage oidc.Storage = oidc.NewMemoryStorage()
	if f.redisURL != "" {
		var opts []redisstore.Option
		if f.redisPrefix != "" {
			opts = append(opts, redisstore.WithPrefix(f.redisPrefix))
		}
		rs, err := redisstore.NewFromURL(f.redisURL, append(opts, redisstore.WithLogger(logger))...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.closers = append(e.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			_ = e.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		storage = rs
	}

	sessionOpts := []oidc.Option{
		oidc.WithObserver(oidc.ObserverFunc(func(ev oidc.Event) {
			logger.Info("session event", "type", ev.Type, "error", ev.Err)
		})),
	}
	if f.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(metrics.WithRegisterer(reg))
		if err != nil {
			_ = e.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		e.closers = append(e.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
		sessionOpts = append(sessionOpts, oidc.WithObserver(collector))
	}

	e.browser, err = newHeadlessBrowser(c, logger)
	if err != nil {
		_ = e.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.session, err = oidc.NewSession(c, e.browser, storage, sessionOpts...)
	if err != nil {
		_ = e.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.closers = append(e.closers, func() error {
		e.session.Done()
		return nil
	})
	return e, nil
}

func (e *env) close() error {
	var result *multierror.Error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	e.closers = nil
	return result.ErrorOrNil()
}
