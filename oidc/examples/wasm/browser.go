// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build js && wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"github.com/hashicorp/capimplicit/oidc"
)

const frameTimeout = 10 * time.Second

// windowBrowser is the BrowserContext of the window the module runs in. The
// hidden frame's fragment is delivered by the silent refresh page with
// postMessage, see callback.SilentRefresh.
type windowBrowser struct {
	window js.Value

	mu        sync.Mutex
	frame     js.Value
	listener  js.Func
	listening bool
	frameHash string
}

// ensure that windowBrowser implements the BrowserContext interface
var _ oidc.BrowserContext = (*windowBrowser)(nil)

func newWindowBrowser() *windowBrowser {
	return &windowBrowser{window: js.Global().Get("window"), frame: js.Null()}
}

func (b *windowBrowser) CurrentURL() string {
	return b.window.Get("location").Get("href").String()
}

func (b *windowBrowser) Navigate(u string) error {
	b.window.Get("location").Call("assign", u)
	return nil
}

func (b *windowBrowser) ClearHash() error {
	loc := b.window.Get("location")
	b.window.Get("history").Call("replaceState", js.Null(), "", loc.Get("pathname").String()+loc.Get("search").String())
	return nil
}

func (b *windowBrowser) CreateHiddenFrame(ctx context.Context, u string) error {
	const op = "windowBrowser.CreateHiddenFrame"
	b.mu.Lock()
	if b.frame.Truthy() {
		b.mu.Unlock()
		return fmt.Errorf("%s: a hidden frame is already open", op)
	}
	origin := b.window.Get("location").Get("origin").String()
	doc := b.window.Get("document")
	frame := doc.Call("createElement", "iframe")
	frame.Get("style").Set("display", "none")

	hashCh := make(chan string, 1)
	b.listener = js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		ev := args[0]
		if ev.Get("origin").String() != origin || !ev.Get("source").Equal(frame.Get("contentWindow")) {
			return nil
		}
		select {
		case hashCh <- ev.Get("data").String():
		default:
		}
		return nil
	})
	b.listening = true
	b.window.Call("addEventListener", "message", b.listener)
	frame.Set("src", u)
	doc.Get("body").Call("appendChild", frame)
	b.frame = frame
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()
	select {
	case hash := <-hashCh:
		b.mu.Lock()
		defer b.mu.Unlock()
		b.frameHash = hash
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: frame did not return: %w", op, ctx.Err())
	}
}

func (b *windowBrowser) ReadAndClearFrameHash(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.frame.Truthy() {
		return "", errors.New("windowBrowser.ReadAndClearFrameHash: no hidden frame")
	}
	hash := b.frameHash
	b.frameHash = ""
	return hash, nil
}

func (b *windowBrowser) RemoveHiddenFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listening {
		b.window.Call("removeEventListener", "message", b.listener)
		b.listener.Release()
		b.listening = false
	}
	if b.frame.Truthy() {
		b.frame.Call("remove")
	}
	b.frame = js.Null()
	b.frameHash = ""
	return nil
}
