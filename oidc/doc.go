/*
Package oidc provides a client side implementation of the OpenID Connect
Implicit Flow for applications which run in a browser context. It covers the
whole token lifecycle: composing the login URL, processing the fragment the
provider returns, persisting tokens, refreshing them in a hidden frame before
they expire and ending the session.

A Session is created from a Config, a BrowserContext and a Storage. Init is
called once per application load and either resumes a stored session,
processes a returned fragment or redirects to the provider. Observers are
notified of every lifecycle event.

The id_token is decoded, and its nonce and subject checked. Its signature is
only verified when a jwt.KeySet is provided with WithKeySet.
*/
package oidc
