// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capimplicit provides a client side OpenID Connect Implicit Flow token
// lifecycle engine and the packages which support it:
//
//	oidc:       the session, token store and implicit flow building blocks
//	jwt:        id_token signature verification against a key set
//	redisstore: a Redis backed oidc.Storage
//	metrics:    Prometheus collectors for session events
//
// See README.md
package capimplicit
