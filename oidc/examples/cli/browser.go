// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/hashicorp/go-hclog"
)

// headlessBrowser is the BrowserContext of a terminal. Navigations open the
// system browser and hidden frames are requested directly, so a silent
// refresh only succeeds when the provider doesn't need its session cookie.
type headlessBrowser struct {
	client *http.Client
	logger hclog.Logger
	open   func(string) error

	mu         sync.Mutex
	currentURL string
	frameHash  string
	navigated  bool
}

// ensure that headlessBrowser implements the BrowserContext interface
var _ oidc.BrowserContext = (*headlessBrowser)(nil)

func newHeadlessBrowser(c *oidc.Config, logger hclog.Logger) (*headlessBrowser, error) {
	const op = "newHeadlessBrowser"
	client, err := c.HttpClient()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	noRedirects := *client
	noRedirects.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &headlessBrowser{
		client:     &noRedirects,
		logger:     logger,
		open:       openURL,
		currentURL: c.RedirectUri,
	}, nil
}

func (b *headlessBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentURL
}

func (b *headlessBrowser) Navigate(u string) error {
	b.mu.Lock()
	b.navigated = true
	b.mu.Unlock()
	fmt.Fprintf(os.Stderr, "Complete the login via your OIDC provider. Launching browser to:\n\n    %s\n\n", u)
	if err := b.open(u); err != nil {
		fmt.Fprintf(os.Stderr, "Error attempting to automatically open browser: '%s'.\nPlease visit the URL manually.\n", err)
	}
	return nil
}

func (b *headlessBrowser) didNavigate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.navigated
}

func (b *headlessBrowser) ClearHash() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := strings.Index(b.currentURL, "#"); i > -1 {
		b.currentURL = b.currentURL[:i]
	}
	return nil
}

func (b *headlessBrowser) CreateHiddenFrame(ctx context.Context, u string) error {
	const op = "headlessBrowser.CreateHiddenFrame"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	var hash string
	if loc := resp.Header.Get("Location"); loc != "" {
		hash = oidc.HashOf(loc)
	}
	b.logger.Debug("hidden frame loaded", "op", op, "status", resp.StatusCode, "has_fragment", hash != "")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameHash = hash
	return nil
}

func (b *headlessBrowser) ReadAndClearFrameHash(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hash := b.frameHash
	b.frameHash = ""
	return hash, nil
}

func (b *headlessBrowser) RemoveHiddenFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameHash = ""
	return nil
}

// openURL opens the specified URL in the default browser of the user.
func openURL(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
