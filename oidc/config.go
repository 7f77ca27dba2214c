// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/capimplicit/oidc/internal/strutils"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultRefreshTokenTimeout is how long before the access token expires
	// a silent refresh is started.
	DefaultRefreshTokenTimeout = 30 * time.Second

	// DefaultSilentRefreshPath is appended to the application origin when no
	// silent refresh redirect URI is configured.
	DefaultSilentRefreshPath = "/assets/silent-refresh.html"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration of an implicit flow session. Once
// returned by NewConfig it must be treated as immutable.
type Config struct {
	// Host is the authorization server base URL. The authorize, token and
	// revoke endpoints live under {Host}/oauth2/.
	Host string

	// ClientId is the relying party id
	ClientId string

	// ClientSecret is the relying party secret, only used for the refresh
	// token grant. Defaults to an empty secret.
	ClientSecret ClientSecret

	// Scope is the space separated scope requested of the provider.
	Scope string

	// RedirectUri is where the provider returns the main window to. It is
	// required when ImplicitFlow is enabled.
	RedirectUri string

	// SilentRedirectUri is where the provider returns the hidden refresh
	// frame to.
	SilentRedirectUri string

	// RefreshTokenTimeout is the lead time before access token expiry at
	// which the silent refresh fires.
	RefreshTokenTimeout time.Duration

	// ImplicitFlow enables fragment processing and login redirects.
	ImplicitFlow bool

	// PublicUrls is a list of glob patterns for locations which never force
	// a login redirect.
	PublicUrls []string

	// SilentLogin redirects anonymous visitors of non public URLs to the
	// provider.
	SilentLogin bool

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string

	// Logger is an optional logger
	Logger hclog.Logger

	publicUrls *PublicURLMatcher
}

// Endpoints are the provider endpoints derived from the Host.
type Endpoints struct {
	AuthURL   string
	TokenURL  string
	RevokeURL string
}

// NewConfig composes a new config for an implicit flow session. Missing
// optional fields receive their defaults here, and only here.
// Supported options:
//
//	WithClientSecret
//	WithRedirectUri
//	WithSilentRedirectUri
//	WithOrigin
//	WithRefreshTokenTimeout
//	WithImplicitFlow
//	WithPublicUrls
//	WithSilentLogin
//	WithProviderCA
//	WithLogger
func NewConfig(host, clientId, scope string, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Host:                strings.TrimSuffix(host, "/"),
		ClientId:            clientId,
		ClientSecret:        opts.withClientSecret,
		Scope:               scope,
		RedirectUri:         opts.withRedirectUri,
		SilentRedirectUri:   opts.withSilentRedirectUri,
		RefreshTokenTimeout: opts.withRefreshTokenTimeout,
		ImplicitFlow:        opts.withImplicitFlow,
		PublicUrls:          strutils.RemoveDuplicatesStable(opts.withPublicUrls, false),
		SilentLogin:         opts.withSilentLogin,
		ProviderCA:          opts.withProviderCA,
		Logger:              opts.withLogger,
	}
	if c.RefreshTokenTimeout == 0 {
		c.RefreshTokenTimeout = DefaultRefreshTokenTimeout
	}
	if c.SilentRedirectUri == "" {
		c.SilentRedirectUri = strings.TrimSuffix(opts.withOrigin, "/") + DefaultSilentRefreshPath
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	m, err := NewPublicURLMatcher(c.PublicUrls)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.publicUrls = m
	return c, nil
}

// Validate the configuration. Every violation is reported, not just the
// first one found.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.Host == "" {
		result = multierror.Append(result, ErrMissingHost)
	} else {
		u, err := url.Parse(c.Host)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("host %q is invalid: %s: %w", c.Host, err, ErrConfiguration))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			result = multierror.Append(result, fmt.Errorf("host %q scheme is not http or https: %w", c.Host, ErrConfiguration))
		}
	}
	if c.ClientId == "" {
		result = multierror.Append(result, ErrMissingClientId)
	}
	if c.Scope == "" {
		result = multierror.Append(result, ErrMissingScope)
	}
	if c.ImplicitFlow && c.RedirectUri == "" {
		result = multierror.Append(result, ErrMissingRedirectUri)
	}
	if c.RefreshTokenTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("refresh token timeout is negative: %w", ErrConfiguration))
	}
	return result.ErrorOrNil()
}

// Endpoints returns the authorize, token and revoke endpoints of the Host.
func (c *Config) Endpoints() Endpoints {
	return Endpoints{
		AuthURL:   c.Host + "/oauth2/authorize",
		TokenURL:  c.Host + "/oauth2/token",
		RevokeURL: c.Host + "/oauth2/revoke",
	}
}

// IsPublicURL reports whether u matches one of the configured PublicUrls.
func (c *Config) IsPublicURL(u string) bool {
	if c.publicUrls == nil {
		return IsPublic(u, c.PublicUrls)
	}
	return c.publicUrls.IsPublic(u)
}

// HttpClient is a helper function that creates a new http client for the
// provider configured. It uses a pooled transport and trusts ProviderCA
// when one is configured.
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "Config.HttpClient"
	tr := cleanhttp.DefaultPooledTransport()
	if c.ProviderCA != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(c.ProviderCA)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs: certPool,
		}
	}
	return &http.Client{
		Transport: tr,
	}, nil
}

// HttpClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HttpClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return oidc.ClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withClientSecret        ClientSecret
	withRedirectUri         string
	withSilentRedirectUri   string
	withOrigin              string
	withRefreshTokenTimeout time.Duration
	withImplicitFlow        bool
	withPublicUrls          []string
	withSilentLogin         bool
	withProviderCA          string
	withLogger              hclog.Logger
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithClientSecret provides an optional client secret for the config
func WithClientSecret(secret ClientSecret) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClientSecret = secret
		}
	}
}

// WithSilentRedirectUri provides an optional redirect URI for the hidden
// refresh frame.
func WithSilentRedirectUri(uri string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSilentRedirectUri = uri
		}
	}
}

// WithOrigin provides the application origin (scheme://host[:port]) used to
// derive the default silent redirect URI.
func WithOrigin(origin string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withOrigin = origin
		}
	}
}

// WithRefreshTokenTimeout provides an optional refresh lead time.
func WithRefreshTokenTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRefreshTokenTimeout = d
		}
	}
}

// WithImplicitFlow enables the implicit flow.
func WithImplicitFlow() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withImplicitFlow = true
		}
	}
}

// WithPublicUrls provides glob patterns of locations which don't require
// authentication.
func WithPublicUrls(patterns ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withPublicUrls = append(o.withPublicUrls, patterns...)
		}
	}
}

// WithSilentLogin enables redirecting anonymous visitors to the provider.
func WithSilentLogin() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSilentLogin = true
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}
