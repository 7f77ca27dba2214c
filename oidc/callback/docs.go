// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides the pages (in the form of http.HandlerFunc)
a host serves at the redirect URIs of an implicit flow: the silent refresh
page loaded in the hidden frame and a relay which returns the main window's
fragment to a Go process, such as a CLI listening on a loopback address.
*/
package callback
