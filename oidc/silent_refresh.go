// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// SilentRefreshChannel re-runs the implicit flow in a hidden frame. The
// frame is created, read and removed by a single Refresh call and is never
// reused.
type SilentRefreshChannel struct {
	browser BrowserContext
	logger  hclog.Logger
}

// NewSilentRefreshChannel creates a channel over b.
// Supported options: WithLogger
func NewSilentRefreshChannel(b BrowserContext, opt ...Option) (*SilentRefreshChannel, error) {
	const op = "oidc.NewSilentRefreshChannel"
	if b == nil {
		return nil, fmt.Errorf("%s: browser context is nil: %w", op, ErrNilParameter)
	}
	opts := getRefreshChannelOpts(opt...)
	return &SilentRefreshChannel{
		browser: b,
		logger:  opts.withLogger,
	}, nil
}

// Refresh loads loginURL in a hidden frame and returns the fragment the
// provider redirected the frame back with. The frame's hash is cleared and
// the frame is removed before Refresh returns, even on failure.
func (c *SilentRefreshChannel) Refresh(ctx context.Context, loginURL string) (hash string, retErr error) {
	const op = "SilentRefreshChannel.Refresh"
	if loginURL == "" {
		return "", fmt.Errorf("%s: login url is empty: %w", op, ErrInvalidParameter)
	}
	defer func() {
		if err := c.browser.RemoveHiddenFrame(); err != nil {
			c.logger.Warn("unable to remove silent refresh frame", "op", op, "error", err)
			retErr = multierror.Append(retErr, fmt.Errorf("%s: unable to remove frame: %w", op, err))
			hash = ""
		}
	}()

	c.logger.Trace("loading silent refresh frame", "op", op)
	if err := c.browser.CreateHiddenFrame(ctx, loginURL); err != nil {
		return "", fmt.Errorf("%s: unable to load frame: %w", op, err)
	}
	hash, err := c.browser.ReadAndClearFrameHash(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: unable to read frame hash: %w", op, err)
	}
	return hash, nil
}

// refreshChannelOptions is the set of available options for
// SilentRefreshChannel functions
type refreshChannelOptions struct {
	withLogger hclog.Logger
}

func refreshChannelDefaults() refreshChannelOptions {
	return refreshChannelOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getRefreshChannelOpts(opt ...Option) refreshChannelOptions {
	opts := refreshChannelDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
