// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNonce(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	alnum := regexp.MustCompile("^[A-Za-z0-9]+$")

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got, err := NewNonce()
		require.NoError(err)
		assert.Lenf(got, NonceLength, "NewNonce() = %v, with len of %d and wanted len of %v", got, len(got), NonceLength)
		assert.Regexp(alnum, got)
		assert.Falsef(seen[got], "NewNonce() = %v was generated twice", got)
		seen[got] = true
	}
}
