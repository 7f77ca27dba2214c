// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yhat/scrape"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestSilentRefresh(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		opts       []Option
		wantOrigin string
		wantIsErr  error
	}{
		{
			name:       "valid",
			opts:       []Option{WithParentOrigin("https://app.example.com")},
			wantOrigin: "app.example.com",
		},
		{
			name:       "trailing-slash",
			opts:       []Option{WithParentOrigin("http://localhost:8080/")},
			wantOrigin: "localhost:8080",
		},
		{
			name:      "missing-origin",
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "not-an-origin",
			opts:      []Option{WithParentOrigin("https://app.example.com/some/path")},
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:      "no-scheme",
			opts:      []Option{WithParentOrigin("app.example.com")},
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			h, err := SilentRefresh(tt.opts...)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "SilentRefresh() = %v, want %v", err, tt.wantIsErr)
				return
			}
			require.NoError(err)

			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/assets/silent-refresh.html", nil))
			assert.Equal(http.StatusOK, rec.Code)
			assert.Equal("text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal("no-store", rec.Header().Get("Cache-Control"))

			root, err := html.Parse(rec.Body)
			require.NoError(err)
			script, ok := scrape.Find(root, scrape.ByTag(atom.Script))
			require.True(ok)
			js := scrape.Text(script)
			assert.Contains(js, "parent.postMessage(location.hash")
			assert.Contains(js, tt.wantOrigin)
		})
	}
	t.Run("method-not-allowed", func(t *testing.T) {
		h, err := SilentRefresh(WithParentOrigin("https://app.example.com"))
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/assets/silent-refresh.html", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
