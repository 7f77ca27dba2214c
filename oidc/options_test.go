package oidc

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestApplyOpts(t *testing.T) {
	// ApplyOpts testing is covered by other tests but we do have just more
	// more test to add here.
	// Let's make sure we don't panic on nil options
	anonymousOpts := struct {
		Names []string
	}{
		nil,
	}
	ApplyOpts(anonymousOpts, nil)
}

func Test_WithNow(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	at := time.Unix(42, 0)
	now := func() time.Time { return at }

	opts := getTokenStoreOpts(WithNow(now))
	assert.Equal(at, opts.withNowFunc())

	sOpts := getSessionOpts(WithNow(now))
	assert.Equal(at, sOpts.withNowFunc())

	// a nil func keeps the default
	opts = getTokenStoreOpts(WithNow(nil))
	assert.NotNil(opts.withNowFunc)
}

func Test_WithLogger(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	l := hclog.New(&hclog.LoggerOptions{Name: "test"})

	assert.Equal(l, getConfigOpts(WithLogger(l)).withLogger)
	assert.Equal(l, getSessionOpts(WithLogger(l)).withLogger)
	assert.Equal(l, getTokenStoreOpts(WithLogger(l)).withLogger)
	assert.Equal(l, getRefreshChannelOpts(WithLogger(l)).withLogger)
	assert.NotNil(getTokenStoreOpts(WithLogger(nil)).withLogger)
}

func Test_WithRedirectUri(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal("https://a", getConfigOpts(WithRedirectUri("https://a")).withRedirectUri)
	assert.Equal("https://a", getLoginURLOpts(WithRedirectUri("https://a")).withRedirectUri)
}
