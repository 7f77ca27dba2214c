// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import "context"

// BrowserContext is the part of the hosting browser a Session needs. It
// keeps the Session free of any global window or document.
type BrowserContext interface {
	// CurrentURL returns the main window's full location, fragment included.
	CurrentURL() string

	// Navigate performs a full page navigation of the main window to url.
	Navigate(url string) error

	// ClearHash removes the fragment from the main window's location.
	ClearHash() error

	// CreateHiddenFrame creates a hidden same-origin frame loading url and
	// returns once the frame has been redirected back to the application,
	// or when ctx is done.
	CreateHiddenFrame(ctx context.Context, url string) error

	// ReadAndClearFrameHash returns the hidden frame's fragment and removes
	// it from the frame's history.
	ReadAndClearFrameHash(ctx context.Context) (string, error)

	// RemoveHiddenFrame removes the hidden frame from the document. It is a
	// no-op when there is no frame.
	RemoveHiddenFrame() error
}
