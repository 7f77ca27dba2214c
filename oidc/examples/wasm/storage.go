// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/hashicorp/capimplicit/oidc"
)

// localStorage is an oidc.Storage over window.localStorage. The browser runs
// the module on one thread, so a Remove can't be observed half done.
type localStorage struct {
	store js.Value
}

// ensure that localStorage implements the Storage interface
var _ oidc.Storage = (*localStorage)(nil)

func newLocalStorage() *localStorage {
	return &localStorage{store: js.Global().Get("window").Get("localStorage")}
}

func (s *localStorage) Get(_ context.Context, key string) (string, bool, error) {
	v := s.store.Call("getItem", key)
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (s *localStorage) Set(_ context.Context, key, value string) error {
	s.store.Call("setItem", key, value)
	return nil
}

func (s *localStorage) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.store.Call("removeItem", k)
	}
	return nil
}
