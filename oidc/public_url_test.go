package oidc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		url      string
		patterns []string
		want     bool
	}{
		{name: "suffix", url: "https://app/login", patterns: []string{"*/login"}, want: true},
		{name: "no-patterns", url: "https://app/secure", patterns: nil, want: false},
		{name: "empty-patterns", url: "https://app/secure", patterns: []string{}, want: false},
		{name: "no-match", url: "https://app/secure", patterns: []string{"*/login"}, want: false},
		{name: "any-match", url: "https://app/about", patterns: []string{"*/login", "*/about"}, want: true},
		{name: "double-star", url: "https://app/public/a/b/c", patterns: []string{"https://app/public/**"}, want: true},
		{name: "question-mark", url: "https://app/v1/docs", patterns: []string{"https://app/v?/docs"}, want: true},
		{name: "question-mark-one-char", url: "https://app/v10/docs", patterns: []string{"https://app/v?/docs"}, want: false},
		{name: "exact", url: "https://app/", patterns: []string{"https://app/"}, want: true},
		{name: "invalid-pattern-skipped", url: "https://app/login", patterns: []string{"[", "*/login"}, want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			assert.Equal(tt.want, IsPublic(tt.url, tt.patterns))

			m, err := NewPublicURLMatcher(tt.patterns)
			if tt.name == "invalid-pattern-skipped" {
				require.Error(err)
				assert.True(errors.Is(err, ErrConfiguration))
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, m.IsPublic(tt.url))
		})
	}
}

func TestPublicURLMatcher_nil(t *testing.T) {
	t.Parallel()
	var m *PublicURLMatcher
	assert.False(t, m.IsPublic("https://app/login"))
}
