// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yhat/scrape"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login successful"))
}

// testFailFn is a test ErrorResponseFunc
func testFailFn(r *oidc.AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
	if e != nil {
		w.WriteHeader(http.StatusInternalServerError)
		j, _ := json.Marshal(&oidc.AuthenErrorResponse{
			Error:       "internal-callback-error",
			Description: e.Error(),
		})
		_, _ = w.Write(j)
		return
	}
	if r != nil {
		w.WriteHeader(http.StatusUnauthorized)
		j, _ := json.Marshal(r)
		_, _ = w.Write(j)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	j, _ := json.Marshal(&oidc.AuthenErrorResponse{
		Error: "unknown-callback-error",
	})
	_, _ = w.Write(j)
}

// testSession returns a session waiting for the fragment of nonce.
func testSession(t *testing.T, nonce string) (*oidc.Session, *oidc.MemoryStorage) {
	t.Helper()
	require := require.New(t)
	c, err := oidc.NewConfig("https://idp.example.com", "test-client-id", "openid",
		oidc.WithImplicitFlow(),
		oidc.WithRedirectUri("http://127.0.0.1:8080/callback"),
	)
	require.NoError(err)
	storage := oidc.NewMemoryStorage()
	require.NoError(storage.Set(context.Background(), oidc.KeyNonce, nonce))
	s, err := oidc.NewSession(c, oidc.NewTestBrowser("http://127.0.0.1:8080/callback"), storage)
	require.NoError(err)
	t.Cleanup(s.Done)
	return s, storage
}

func testPostHash(t *testing.T, h http.HandlerFunc, hash string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(url.Values{FormFieldHash: {hash}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestFragment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := testSession(t, "n")

	tests := []struct {
		name string
		p    FragmentProcessor
		sFn  SuccessResponseFunc
		eFn  ErrorResponseFunc
	}{
		{"nil-p", nil, testSuccessFn, testFailFn},
		{"nil-sFn", s, nil, testFailFn},
		{"nil-eFn", s, testSuccessFn, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fragment(ctx, tt.p, tt.sFn, tt.eFn)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestFragment_page(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s, _ := testSession(t, "n")
	h, err := Fragment(context.Background(), s, testSuccessFn, testFailFn)
	require.NoError(err)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
	assert.Equal(http.StatusOK, rec.Code)

	root, err := html.Parse(rec.Body)
	require.NoError(err)
	form, ok := scrape.Find(root, scrape.ByTag(atom.Form))
	require.True(ok)
	assert.Equal("post", scrape.Attr(form, "method"))
	assert.Equal("/callback", scrape.Attr(form, "action"))
	input, ok := scrape.Find(form, scrape.ByTag(atom.Input))
	require.True(ok)
	assert.Equal(FormFieldHash, scrape.Attr(input, "name"))

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodDelete, "/callback", nil))
	assert.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func TestFragment_responses(t *testing.T) {
	t.Parallel()
	const nonce = "a-nonce"

	tests := []struct {
		name            string
		hash            func(t *testing.T) string
		wantStatusCode  int
		wantRespError   string
		wantDescription string
		wantStored      bool
	}{
		{
			name: "valid",
			hash: func(t *testing.T) string {
				return oidc.TestFragment("abc", oidc.TestUnsignedJWT(t, oidc.TestIdTokenClaims(t, nonce)), "state", 3600)
			},
			wantStatusCode: http.StatusOK,
			wantStored:     true,
		},
		{
			name:            "provider-error",
			hash:            func(t *testing.T) string { return "#error=access_denied&error_description=denied" },
			wantStatusCode:  http.StatusUnauthorized,
			wantRespError:   "access_denied",
			wantDescription: "denied",
		},
		{
			name: "nonce-mismatch",
			hash: func(t *testing.T) string {
				return oidc.TestFragment("abc", oidc.TestUnsignedJWT(t, oidc.TestIdTokenClaims(t, "other")), "state", 3600)
			},
			wantStatusCode:  http.StatusInternalServerError,
			wantRespError:   "internal-callback-error",
			wantDescription: "nonce does not match",
		},
		{
			name:            "empty",
			hash:            func(t *testing.T) string { return "" },
			wantStatusCode:  http.StatusInternalServerError,
			wantRespError:   "internal-callback-error",
			wantDescription: "no fragment was posted",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			ctx := context.Background()
			s, _ := testSession(t, nonce)
			h, err := Fragment(ctx, s, testSuccessFn, testFailFn)
			require.NoError(err)

			rec := testPostHash(t, h, tt.hash(t))
			assert.Equal(tt.wantStatusCode, rec.Code)
			assert.Equal(tt.wantStored, s.IsLoggedIn(ctx))
			if tt.wantRespError == "" {
				assert.Contains(rec.Body.String(), "login successful")
				return
			}
			var errResp oidc.AuthenErrorResponse
			require.NoError(json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(tt.wantRespError, errResp.Error)
			assert.Contains(errResp.Description, tt.wantDescription)
		})
	}
}
