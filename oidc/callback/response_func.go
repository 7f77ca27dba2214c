// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"net/http"

	"github.com/hashicorp/capimplicit/oidc"
)

// FragmentProcessor validates and stores the tokens of a returned fragment.
// *oidc.Session is a FragmentProcessor.
type FragmentProcessor interface {
	ProcessFragment(ctx context.Context, hash string) error
}

// SuccessResponseFunc is used by callbacks to create a http response when
// the fragment was processed.
//
// The function should use the http.ResponseWriter to send back whatever
// content (headers, html, JSON, etc) it wishes to the browser.
type SuccessResponseFunc func(w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by callbacks to create a http response when
// processing the fragment failed.
//
// respErr is set when the provider returned an error in the fragment. e is
// the error raised while processing the request. Either may be nil.
type ErrorResponseFunc func(respErr *oidc.AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)
