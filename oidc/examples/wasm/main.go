// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build js && wasm

// wasm is an example of running an implicit flow session in the browser.
// The page defines a global "capimplicitConfig" holding the YAML config
// before the module starts. The module exposes a global "capimplicit" object
// with login, logout, token and username functions, and dispatches a
// "capimplicit" DOM event for every session event.
package main

import (
	"context"
	"os"
	"syscall/js"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/hashicorp/go-hclog"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "capimplicit",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	ctx := context.Background()

	raw := js.Global().Get("capimplicitConfig")
	if raw.Type() != js.TypeString {
		logger.Error("global capimplicitConfig is not set")
		return
	}
	c, err := oidc.ParseConfig([]byte(raw.String()), oidc.WithLogger(logger))
	if err != nil {
		logger.Error("invalid config", "error", err)
		return
	}

	window := js.Global().Get("window")
	dispatch := oidc.ObserverFunc(func(e oidc.Event) {
		detail := map[string]interface{}{"type": string(e.Type), "url": e.URL}
		if e.Err != nil {
			detail["error"] = e.Err.Error()
		}
		ev := js.Global().Get("CustomEvent").New("capimplicit", map[string]interface{}{"detail": detail})
		window.Call("dispatchEvent", ev)
	})
	s, err := oidc.NewSession(c, newWindowBrowser(), newLocalStorage(), oidc.WithObserver(dispatch))
	if err != nil {
		logger.Error("unable to create session", "error", err)
		return
	}

	// operations block, so they run outside of the JS callback
	async := func(fn func() error) js.Func {
		return js.FuncOf(func(js.Value, []js.Value) interface{} {
			go func() {
				if err := fn(); err != nil {
					logger.Error("session operation failed", "error", err)
				}
			}()
			return nil
		})
	}
	api := map[string]interface{}{
		"login":  async(func() error { return s.Login(ctx) }),
		"logout": async(func() error { return s.LogOut(ctx) }),
		"token": js.FuncOf(func(js.Value, []js.Value) interface{} {
			return string(s.Token(ctx))
		}),
		"username": js.FuncOf(func(js.Value, []js.Value) interface{} {
			return s.Username(ctx)
		}),
	}
	js.Global().Set("capimplicit", api)

	if err := s.Init(ctx); err != nil {
		logger.Error("unable to initialize session", "error", err)
	}
	// keep the module, and with it the refresh timer, alive
	select {}
}
