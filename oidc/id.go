// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// NonceLength is the number of characters of a nonce generated by NewNonce.
const NonceLength = 40

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiased is the largest multiple of len(nonceAlphabet) that fits in a
// byte. Random bytes at or above it are discarded.
const maxUnbiased = 256 - 256%len(nonceAlphabet)

// NewNonce generates a random alphanumeric nonce of NonceLength characters,
// suitable for binding an id_token to the login attempt that requested it.
func NewNonce() (string, error) {
	const op = "oidc.NewNonce"
	nonce := make([]byte, 0, NonceLength)
	for len(nonce) < NonceLength {
		buf, err := uuid.GenerateRandomBytes(NonceLength)
		if err != nil {
			return "", fmt.Errorf("%s: unable to generate nonce: %s: %w", op, err, ErrIdGeneratorFailed)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			nonce = append(nonce, nonceAlphabet[int(b)%len(nonceAlphabet)])
			if len(nonce) == NonceLength {
				break
			}
		}
	}
	return string(nonce), nil
}
