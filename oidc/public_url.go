// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/gobwas/glob"
)

// PublicURLMatcher decides whether a location may be visited without
// authentication. Patterns are shell globs compiled without separators, so
// "*" and "**" match any run of characters (including "/") and "?" matches
// exactly one.
type PublicURLMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewPublicURLMatcher compiles patterns.
func NewPublicURLMatcher(patterns []string) (*PublicURLMatcher, error) {
	const op = "oidc.NewPublicURLMatcher"
	m := &PublicURLMatcher{
		patterns: patterns,
		globs:    make([]glob.Glob, 0, len(patterns)),
	}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: public url pattern %q is invalid: %s: %w", op, p, err, ErrConfiguration)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// IsPublic reports whether u matches any pattern. It is always false when
// there are no patterns.
func (m *PublicURLMatcher) IsPublic(u string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(u) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns the matcher was compiled from.
func (m *PublicURLMatcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// IsPublic reports whether currentUrl matches any of patterns. Invalid
// patterns never match.
func IsPublic(currentUrl string, patterns []string) bool {
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		if g.Match(currentUrl) {
			return true
		}
	}
	return false
}
