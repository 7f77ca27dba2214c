// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"net/url"
	"strings"
)

// Fragment parameters returned by the provider.
const (
	ParamAccessToken      = "access_token"
	ParamIdToken          = "id_token"
	ParamSessionState     = "session_state"
	ParamExpiresIn        = "expires_in"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorUri         = "error_uri"
)

// FragmentParams are the key/value pairs of a returned URL fragment. A key
// given without "=" has a nil value.
type FragmentParams map[string]*string

// Get returns the value of key, and false when the key is missing or has no
// value.
func (p FragmentParams) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Has reports whether key is present, with or without a value.
func (p FragmentParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// ParseFragment parses the fragment of a redirect back from the provider.
// It returns nil params when rawHash doesn't start with "#" or is an
// application route ("#/..."), which belongs to the router.
//
// Everything up to and including a "?" is dropped, otherwise just the "#".
// Pairs are split on "&" and then on the first "=", keys and values are
// URL-decoded and a leading "/" is dropped from keys. The last duplicate
// key wins.
func ParseFragment(rawHash string) (FragmentParams, error) {
	const op = "oidc.ParseFragment"
	if !strings.HasPrefix(rawHash, "#") || IsRouteHash(rawHash) {
		return nil, nil
	}
	query := rawHash[1:]
	if i := strings.Index(rawHash, "?"); i > -1 {
		query = rawHash[i+1:]
	}

	params := FragmentParams{}
	for _, pair := range strings.Split(query, "&") {
		escapedKey, escapedValue, hasValue := strings.Cut(pair, "=")
		key, err := url.PathUnescape(escapedKey)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to decode key: %s: %w", op, err, ErrMalformedFragment)
		}
		key = strings.TrimPrefix(key, "/")
		if !hasValue {
			params[key] = nil
			continue
		}
		value, err := url.PathUnescape(escapedValue)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to decode value of %q: %s: %w", op, key, err, ErrMalformedFragment)
		}
		params[key] = &value
	}
	return params, nil
}

// IsRouteHash reports whether hash is an application route such as "#/home".
func IsRouteHash(hash string) bool {
	return strings.HasPrefix(hash, "#/")
}

// HashOf returns the fragment of rawURL including its leading "#", or ""
// when it has none.
func HashOf(rawURL string) string {
	if i := strings.Index(rawURL, "#"); i > -1 {
		return rawURL[i:]
	}
	return ""
}
