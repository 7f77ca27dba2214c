// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package strutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrListContains(t *testing.T) {
	t.Parallel()
	redirects := []string{
		"https://app.example.com/",
		"https://app.example.com/assets/silent-refresh.html",
	}
	tests := []struct {
		name   string
		needle string
		want   bool
	}{
		{name: "app", needle: "https://app.example.com/", want: true},
		{name: "silent", needle: "https://app.example.com/assets/silent-refresh.html", want: true},
		{name: "no-trailing-slash", needle: "https://app.example.com"},
		{name: "other-host", needle: "https://evil.example.com/"},
		{name: "empty", needle: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StrListContains(redirects, tt.needle))
		})
	}
	assert.False(t, StrListContains(nil, "https://app.example.com/"))
}

func TestRemoveDuplicatesStable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		input           []string
		caseInsensitive bool
		want            []string
	}{
		{name: "empty", input: []string{}, want: []string{}},
		{name: "nil", want: []string{}},
		{
			name:  "public-urls",
			input: []string{"*/login", "*/about", "*/login"},
			want:  []string{"*/login", "*/about"},
		},
		{
			name:  "case-sensitive",
			input: []string{"*/Login", "*/login"},
			want:  []string{"*/Login", "*/login"},
		},
		{
			name:            "case-insensitive",
			input:           []string{"*/Login", "*/login"},
			caseInsensitive: true,
			want:            []string{"*/Login"},
		},
		{
			name:  "blank-dropped",
			input: []string{" ", "*/docs/*", "", "*/docs/*"},
			want:  []string{"*/docs/*"},
		},
		{
			name:  "trimmed-compare-keeps-original",
			input: []string{"*/login ", " */login", "*/about"},
			want:  []string{"*/login ", "*/about"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RemoveDuplicatesStable(tt.input, tt.caseInsensitive))
		})
	}
}
