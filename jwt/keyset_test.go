package jwt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	wellKnownJWKS      = "/.well-known/jwks.json"
	wellKnownDiscovery = "/.well-known/openid-configuration"
	testKeyID          = "test-key"
)

// testProvider serves a discovery document and a JWKS with one public key.
type testProvider struct {
	srv *httptest.Server
	pub crypto.PublicKey
	alg string
}

func startTestProvider(t *testing.T, pub crypto.PublicKey, alg string) *testProvider {
	t.Helper()
	tp := &testProvider{pub: pub, alg: alg}
	mux := http.NewServeMux()
	mux.HandleFunc(wellKnownDiscovery, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                tp.srv.URL,
			"authorization_endpoint":                tp.srv.URL + "/oauth2/authorize",
			"token_endpoint":                        tp.srv.URL + "/oauth2/token",
			"jwks_uri":                              tp.srv.URL + wellKnownJWKS,
			"id_token_signing_alg_values_supported": []string{alg},
		})
	})
	mux.HandleFunc(wellKnownJWKS, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jose.JSONWebKeySet{
			Keys: []jose.JSONWebKey{{Key: tp.pub, KeyID: testKeyID, Algorithm: alg, Use: "sig"}},
		})
	})
	tp.srv = httptest.NewTLSServer(mux)
	t.Cleanup(tp.srv.Close)
	return tp
}

func (tp *testProvider) caPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: tp.srv.Certificate().Raw}))
}

func testJWTClaims(t *testing.T) map[string]interface{} {
	t.Helper()
	return map[string]interface{}{
		"iss":   "https://example.com/",
		"sub":   "alice@example.com",
		"aud":   []interface{}{"www.example.com"},
		"exp":   float64(1611699944),
		"iat":   float64(1611699344),
		"nonce": "abc123",
	}
}

func testSignJWT(t *testing.T, key crypto.PrivateKey, alg jose.SignatureAlgorithm, claims interface{}, keyID string) string {
	t.Helper()
	opts := (&jose.SignerOptions{}).WithType("JWT")
	if keyID != "" {
		opts = opts.WithHeader("kid", keyID)
	}
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: key}, opts)
	require.NoError(t, err)
	raw, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	require.NoError(t, err)
	return raw
}

func testPublicKeyPEM(t *testing.T, pub crypto.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestStaticKeySet_VerifySignature(t *testing.T) {
	t.Parallel()
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ks, err := NewStaticKeySet([]string{
		testPublicKeyPEM(t, ecKey.Public()),
		testPublicKeyPEM(t, rsaKey.Public()),
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantErrIs error
	}{
		{
			name:  "ES256",
			token: testSignJWT(t, ecKey, jose.ES256, testJWTClaims(t), testKeyID),
		},
		{
			name:  "RS256",
			token: testSignJWT(t, rsaKey, jose.RS256, testJWTClaims(t), ""),
		},
		{
			name:      "unknown-key",
			token:     testSignJWT(t, otherKey, jose.ES256, testJWTClaims(t), ""),
			wantErrIs: ErrInvalidSignature,
		},
		{
			name:      "not-a-jwt",
			token:     "not.a.jwt",
			wantErrIs: ErrInvalidSignature,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := ks.VerifySignature(context.Background(), tt.token)
			if tt.wantErrIs != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantErrIs)
				return
			}
			require.NoError(err)
			assert.Equal(testJWTClaims(t), got)
		})
	}
}

func TestNewStaticKeySet(t *testing.T) {
	t.Parallel()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name      string
		keys      []string
		wantErrIs error
	}{
		{name: "valid", keys: []string{testPublicKeyPEM(t, rsaKey.Public())}},
		{name: "empty", keys: nil, wantErrIs: ErrInvalidParameter},
		{name: "not-pem", keys: []string{"not a pem"}, wantErrIs: ErrInvalidPublicKey},
		{
			name:      "garbage-block",
			keys:      []string{string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte("nope")}))},
			wantErrIs: ErrInvalidPublicKey,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewStaticKeySet(tt.keys)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestJSONWebKeySet_VerifySignature(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	tp := startTestProvider(t, priv.Public(), string(jose.ES256))

	ks, err := NewJSONWebKeySet(context.Background(), tp.srv.URL+wellKnownJWKS, WithCAPEM(tp.caPEM()))
	require.NoError(err)

	got, err := ks.VerifySignature(context.Background(), testSignJWT(t, priv, jose.ES256, testJWTClaims(t), testKeyID))
	require.NoError(err)
	assert.Equal(testJWTClaims(t), got)

	_, err = ks.VerifySignature(context.Background(), testSignJWT(t, other, jose.ES256, testJWTClaims(t), testKeyID))
	require.Error(err)
	assert.ErrorIs(err, ErrInvalidSignature)
}

func TestNewJSONWebKeySet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		jwksURL   string
		caPEM     string
		wantErrIs error
	}{
		{name: "valid", jwksURL: "https://example.com" + wellKnownJWKS},
		{name: "empty-url", wantErrIs: ErrInvalidParameter},
		{
			name:      "malformed-ca",
			jwksURL:   "https://example.com" + wellKnownJWKS,
			caPEM:     "-----BEGIN CERTIFICATE-----",
			wantErrIs: ErrInvalidCACert,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewJSONWebKeySet(context.Background(), tt.jwksURL, WithCAPEM(tt.caPEM))
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOIDCDiscoveryKeySet(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	tp := startTestProvider(t, priv.Public(), string(jose.ES256))

	_, err = NewOIDCDiscoveryKeySet(context.Background(), "")
	assert.ErrorIs(err, ErrInvalidParameter)

	_, err = NewOIDCDiscoveryKeySet(context.Background(), tp.srv.URL, WithCAPEM("-----BEGIN CERTIFICATE-----"))
	assert.ErrorIs(err, ErrInvalidCACert)

	// the test server's certificate isn't trusted without the CA
	_, err = NewOIDCDiscoveryKeySet(context.Background(), tp.srv.URL)
	assert.Error(err)

	ks, err := NewOIDCDiscoveryKeySet(context.Background(), tp.srv.URL, WithCAPEM(tp.caPEM()))
	require.NoError(err)
	got, err := ks.VerifySignature(context.Background(), testSignJWT(t, priv, jose.ES256, testJWTClaims(t), testKeyID))
	require.NoError(err)
	assert.Equal("alice@example.com", got["sub"])

	_, err = ks.VerifySignature(context.Background(), "not.a.jwt")
	assert.ErrorIs(err, ErrInvalidSignature)
}
