package oidc

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/capimplicit/oidc/internal/strutils"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestProvider is a local implicit flow provider which makes writing tests
// much easier. It serves {Addr}/oauth2/authorize, {Addr}/oauth2/token, a
// discovery document and a JWKS, and signs id_tokens with an ECDSA key.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks         *jose.JSONWebKeySet
	replySubject string

	mu                   sync.Mutex
	clientID             string
	clientSecret         string
	allowedRedirectURIs  []string
	username             string
	password             string
	expectedRefreshToken string
	replyRefreshToken    string
	expiresIn            int
	sessionState         string
	customClaims         map[string]interface{}
	loginRequired        bool
	omitSessionState     bool

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// StartTestProvider creates a disposable TestProvider listening on a random
// local port.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID:            "test-client-id",
		allowedRedirectURIs: []string{"https://example.com"},
		replySubject:        "alice@example.com",
		expiresIn:           3600,
		sessionState:        "test-session-state",
		t:                   t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()
	return p
}

// SetClientCreds is for configuring the client information required by the
// token endpoint.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetUser configures the only credentials the password grant accepts.
func (p *TestProvider) SetUser(username, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.username = username
	p.password = password
}

// SetRefreshTokens configures the refresh token the refresh grant accepts
// and the one returned by both grants.
func (p *TestProvider) SetRefreshTokens(expected, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedRefreshToken = expected
	p.replyRefreshToken = reply
}

// SetAllowedRedirectURIs allows the provider to redirect to the given URIs.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetExpiresIn configures the returned expires_in, in seconds.
func (p *TestProvider) SetExpiresIn(seconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresIn = seconds
}

// SetCustomClaims lets you add claims to the returned id_tokens.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetLoginRequired makes "prompt=none" authorize requests fail with
// login_required.
func (p *TestProvider) SetLoginRequired(required bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginRequired = required
}

// OmitSessionState removes session_state from returned fragments.
func (p *TestProvider) OmitSessionState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitSessionState = true
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// HTTPClient returns a client which trusts the provider and doesn't follow
// redirects.
func (p *TestProvider) HTTPClient() *http.Client {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM([]byte(p.caCert))
	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// FrameHandler returns a TestFrameHandler which answers hidden frames by
// requesting their login URL from the provider and returning the fragment
// of the redirect.
func (p *TestProvider) FrameHandler() TestFrameHandler {
	return func(ctx context.Context, loginURL string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
		if err != nil {
			return "", err
		}
		resp, err := p.HTTPClient().Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			return "", fmt.Errorf("authorize returned %d", resp.StatusCode)
		}
		return HashOf(resp.Header.Get("Location")), nil
	}
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	redirectURI := req.URL.Query().Get("redirect_uri") + "#error=" + url.QueryEscape(errorCode)
	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}
	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.t.Helper()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := struct {
			Issuer        string   `json:"issuer"`
			AuthEndpoint  string   `json:"authorization_endpoint"`
			TokenEndpoint string   `json:"token_endpoint"`
			JWKSURI       string   `json:"jwks_uri"`
			Algs          []string `json:"id_token_signing_alg_values_supported"`
		}{
			Issuer:        p.Addr(),
			AuthEndpoint:  p.Addr() + "/oauth2/authorize",
			TokenEndpoint: p.Addr() + "/oauth2/token",
			JWKSURI:       p.Addr() + "/.well-known/jwks.json",
			Algs:          []string{string(jose.ES256)},
		}
		_ = p.writeJSON(w, &reply)

	case "/.well-known/jwks.json":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = p.writeJSON(w, p.jwks)

	case "/oauth2/authorize":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		redirectURI := qv.Get("redirect_uri")
		if !strutils.StrListContains(p.allowedRedirectURIs, redirectURI) {
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		}
		switch {
		case qv.Get("response_type") != ResponseTypeImplicit:
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		case qv.Get("client_id") != p.clientID:
			p.writeAuthErrorResponse(w, req, "unauthorized_client", "")
			return
		case qv.Get("nonce") == "":
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing nonce parameter")
			return
		case qv.Get("prompt") == "none" && p.loginRequired:
			p.writeAuthErrorResponse(w, req, "login_required", "")
			return
		}

		now := time.Now()
		stdClaims := jwt.Claims{
			Subject:  p.replySubject,
			Issuer:   p.Addr(),
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(time.Duration(p.expiresIn) * time.Second)),
			Audience: jwt.Audience{p.clientID},
		}
		privateClaims := map[string]interface{}{
			"nonce": qv.Get("nonce"),
		}
		for k, v := range p.customClaims {
			privateClaims[k] = v
		}
		idToken := TestSignJWT(p.t, p.ecdsaPrivateKey, stdClaims, privateClaims)

		fragment := url.Values{}
		fragment.Set(ParamAccessToken, "access-"+qv.Get("nonce"))
		fragment.Set(ParamIdToken, idToken)
		fragment.Set(ParamExpiresIn, strconv.Itoa(p.expiresIn))
		if !p.omitSessionState {
			fragment.Set(ParamSessionState, p.sessionState)
		}
		http.Redirect(w, req, redirectURI+"#"+fragment.Encode(), http.StatusFound)

	case "/oauth2/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch req.FormValue("grant_type") {
		case "password":
			switch {
			case req.FormValue("client_id") != p.clientID:
				_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "unknown client")
				return
			case p.username == "" || req.FormValue("username") != p.username || req.FormValue("password") != p.password:
				_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_grant", "bad credentials")
				return
			}
		case "refresh_token":
			clientID, clientSecret, ok := req.BasicAuth()
			switch {
			case !ok || clientID != p.clientID || clientSecret != p.clientSecret:
				_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "bad client credentials")
				return
			case p.expectedRefreshToken == "" || req.FormValue("refresh_token") != p.expectedRefreshToken:
				_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unexpected refresh token")
				return
			}
		default:
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "bad grant_type")
			return
		}
		reply := struct {
			AccessToken  string `json:"access_token"`
			TokenType    string `json:"token_type"`
			ExpiresIn    int    `json:"expires_in"`
			RefreshToken string `json:"refresh_token,omitempty"`
		}{
			AccessToken:  "access-" + req.FormValue("grant_type"),
			TokenType:    "Bearer",
			ExpiresIn:    p.expiresIn,
			RefreshToken: p.replyRefreshToken,
		}
		_ = p.writeJSON(w, &reply)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				Algorithm: string(jose.ES256),
				Use:       "sig",
			},
		},
	}
}
