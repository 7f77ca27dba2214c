package oidc

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestGenerateKeys will generate a test ECDSA P-256 pub/priv key pair
func TestGenerateKeys(t *testing.T) (pub, priv string) {
	t.Helper()
	require := require.New(t)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	{
		derBytes, err := x509.MarshalECPrivateKey(privateKey)
		require.NoError(err)

		pemBlock := &pem.Block{
			Type:  "EC PRIVATE KEY",
			Bytes: derBytes,
		}
		priv = string(pem.EncodeToMemory(pemBlock))
	}
	{
		derBytes, err := x509.MarshalPKIXPublicKey(privateKey.Public())
		require.NoError(err)

		pemBlock := &pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: derBytes,
		}
		pub = string(pem.EncodeToMemory(pemBlock))
	}

	return pub, priv
}

// TestSignJWT will bundle the provided claims into a test signed JWT. The provided key
// must be ECDSA.
func TestSignJWT(t *testing.T, ecdsaPrivKeyPEM string, claims jwt.Claims, privateClaims interface{}) string {
	t.Helper()
	require := require.New(t)
	var key *ecdsa.PrivateKey
	block, _ := pem.Decode([]byte(ecdsaPrivKeyPEM))
	if block != nil {
		var err error
		key, err = x509.ParseECPrivateKey(block.Bytes)
		require.NoError(err)
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)

	raw, err := jwt.Signed(sig).
		Claims(claims).
		Claims(privateClaims).
		CompactSerialize()
	require.NoError(err)

	return raw
}

// TestGenerateCA will generate a test x509 CA cert encoded in a PEM format.
func TestGenerateCA(t *testing.T, hosts []string) string {
	t.Helper()
	require := require.New(t)

	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(err)

	// ECDSA, ED25519 and RSA subject keys should have the DigitalSignature
	// KeyUsage bits set in the x509.Certificate template
	keyUsage := x509.KeyUsageDigitalSignature

	validFor := 2 * time.Minute
	notBefore := time.Now()
	notAfter := notBefore.Add(validFor)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	require.NoError(err)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Acme Co"},
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,

		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	template.IsCA = true
	template.KeyUsage |= x509.KeyUsageCertSign

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes}))
}

// TestIdTokenClaims returns the claims of an id_token for alice bound to
// nonce, expiring in an hour.
func TestIdTokenClaims(t *testing.T, nonce string) map[string]interface{} {
	t.Helper()
	now := time.Now()
	return map[string]interface{}{
		"iss":                "https://example.com/",
		"sub":                "alice@example.com",
		"aud":                "www.example.com",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"nonce":              nonce,
		"preferred_username": "alice",
	}
}

// TestUnsignedJWT will bundle the provided claims into a compact JWT with an
// "none" alg header and a placeholder signature. Segments are base64url
// encoded without padding.
func TestUnsignedJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	require := require.New(t)
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(err)
	payload, err := json.Marshal(claims)
	require.NoError(err)
	enc := base64.RawURLEncoding
	return strings.Join([]string{
		enc.EncodeToString(header),
		enc.EncodeToString(payload),
		enc.EncodeToString([]byte("signature")),
	}, ".")
}

// TestFragment returns a fragment as the provider returns it for a
// successful implicit flow login.
func TestFragment(accessToken, idToken, sessionState string, expiresIn int) string {
	return "#access_token=" + accessToken +
		"&id_token=" + idToken +
		"&session_state=" + sessionState +
		"&expires_in=" + strconv.Itoa(expiresIn)
}

// TestFrameHandler computes the fragment a hidden frame is redirected back
// with for the frame's login URL.
type TestFrameHandler func(ctx context.Context, loginURL string) (hash string, err error)

// TestBrowser is a BrowserContext for tests. It records navigations and
// hidden frames instead of performing them. It is concurrently safe.
type TestBrowser struct {
	mu           sync.Mutex
	currentURL   string
	navigations  []string
	frameURLs    []string
	frameHash    string
	frameOpen    bool
	frameHandler TestFrameHandler
	hashClears   int
}

// ensure that TestBrowser implements the BrowserContext interface
var _ BrowserContext = (*TestBrowser)(nil)

// NewTestBrowser creates a TestBrowser whose main window is at currentURL.
func NewTestBrowser(currentURL string) *TestBrowser {
	return &TestBrowser{currentURL: currentURL}
}

// CurrentURL implements BrowserContext.
func (b *TestBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentURL
}

// SetCurrentURL changes the main window's location.
func (b *TestBrowser) SetCurrentURL(u string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentURL = u
}

// Navigate implements BrowserContext. The navigation is recorded and the
// main window's location changed.
func (b *TestBrowser) Navigate(u string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigations = append(b.navigations, u)
	b.currentURL = u
	return nil
}

// Navigations returns every URL the main window was navigated to.
func (b *TestBrowser) Navigations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigations...)
}

// ClearHash implements BrowserContext.
func (b *TestBrowser) ClearHash() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := strings.Index(b.currentURL, "#"); i > -1 {
		b.currentURL = b.currentURL[:i]
	}
	b.hashClears++
	return nil
}

// HashClears returns how many times the main window's hash was cleared.
func (b *TestBrowser) HashClears() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hashClears
}

// SetFrameHandler sets how hidden frames are answered. Without one every
// frame comes back with an empty hash.
func (b *TestBrowser) SetFrameHandler(h TestFrameHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameHandler = h
}

// CreateHiddenFrame implements BrowserContext.
func (b *TestBrowser) CreateHiddenFrame(ctx context.Context, u string) error {
	b.mu.Lock()
	b.frameURLs = append(b.frameURLs, u)
	b.frameOpen = true
	h := b.frameHandler
	b.mu.Unlock()

	var hash string
	if h != nil {
		var err error
		if hash, err = h(ctx, u); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameHash = hash
	return nil
}

// ReadAndClearFrameHash implements BrowserContext.
func (b *TestBrowser) ReadAndClearFrameHash(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hash := b.frameHash
	b.frameHash = ""
	return hash, nil
}

// RemoveHiddenFrame implements BrowserContext.
func (b *TestBrowser) RemoveHiddenFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameOpen = false
	b.frameHash = ""
	return nil
}

// FrameURLs returns the URL of every hidden frame created.
func (b *TestBrowser) FrameURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.frameURLs...)
}

// FrameOpen reports whether a hidden frame is in the document.
func (b *TestBrowser) FrameOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frameOpen
}
