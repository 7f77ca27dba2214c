package oidc

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStorage fails every call with err.
type failingStorage struct{ err error }

func (s failingStorage) Get(context.Context, string) (string, bool, error) { return "", false, s.err }
func (s failingStorage) Set(context.Context, string, string) error         { return s.err }
func (s failingStorage) Remove(context.Context, ...string) error           { return s.err }

func testNowFunc(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTokenStore_StoreAccessToken(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_123)
	storage := NewMemoryStorage()
	ts, err := NewTokenStore(storage, WithNow(testNowFunc(now)))
	require.NoError(err)

	require.NoError(ts.StoreAccessToken(ctx, "access", 3600*time.Second, ""))
	assert.Equal(map[string]string{
		KeyAccessToken:          "access",
		KeyAccessTokenExpiresIn: strconv.FormatInt(now.UnixMilli()+3600*1000, 10),
		KeyAccessTokenStoredAt:  strconv.FormatInt(now.UnixMilli(), 10),
	}, storage.Snapshot())
	assert.Equal(AccessToken("access"), ts.AccessToken(ctx))
	assert.Equal(RefreshToken(""), ts.RefreshToken(ctx))

	require.NoError(ts.StoreAccessToken(ctx, "access2", time.Minute, "refresh"))
	assert.Equal(RefreshToken("refresh"), ts.RefreshToken(ctx))
	expiresAt, ok := ts.AccessTokenExpiresAt(ctx)
	require.True(ok)
	assert.Equal(now.Add(time.Minute).UnixMilli(), expiresAt.UnixMilli())

	// an empty refresh token leaves the stored one untouched
	require.NoError(ts.StoreAccessToken(ctx, "access3", time.Minute, ""))
	assert.Equal(RefreshToken("refresh"), ts.RefreshToken(ctx))
}

func TestTokenStore_StoreIdToken(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	storage := NewMemoryStorage()
	ts, err := NewTokenStore(storage, WithNow(testNowFunc(now)))
	require.NoError(err)

	require.NoError(ts.StoreIdToken(ctx, "id", now.Unix()+60))
	snap := storage.Snapshot()
	assert.Equal("id", snap[KeyIdToken])
	assert.Equal(strconv.FormatInt((now.Unix()+60)*1000, 10), snap[KeyIdTokenExpiresAt])
	assert.Equal(strconv.FormatInt(now.UnixMilli(), 10), snap[KeyIdTokenStoredAt])
	assert.True(ts.IsIdTokenValid(ctx))
}

func TestTokenStore_IsAccessTokenValid(t *testing.T) {
	t.Parallel()
	now := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		name  string
		setup func(ctx context.Context, s *MemoryStorage)
		now   time.Time
		want  bool
	}{
		{
			name:  "empty",
			setup: func(context.Context, *MemoryStorage) {},
			now:   now,
			want:  false,
		},
		{
			name: "expiry-equals-now",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessToken, "a")
				_ = s.Set(ctx, KeyAccessTokenExpiresIn, strconv.FormatInt(now.UnixMilli(), 10))
			},
			now:  now,
			want: true,
		},
		{
			name: "expiry-equals-now-sub-millisecond",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessToken, "a")
				_ = s.Set(ctx, KeyAccessTokenExpiresIn, strconv.FormatInt(now.UnixMilli(), 10))
			},
			now:  now.Add(500 * time.Microsecond),
			want: true,
		},
		{
			name: "expired-by-one-millisecond",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessToken, "a")
				_ = s.Set(ctx, KeyAccessTokenExpiresIn, strconv.FormatInt(now.UnixMilli()-1, 10))
			},
			now:  now,
			want: false,
		},
		{
			name: "missing-expiry",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessToken, "a")
			},
			now:  now,
			want: false,
		},
		{
			name: "garbage-expiry",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessToken, "a")
				_ = s.Set(ctx, KeyAccessTokenExpiresIn, "tomorrow")
			},
			now:  now,
			want: false,
		},
		{
			name: "missing-token",
			setup: func(ctx context.Context, s *MemoryStorage) {
				_ = s.Set(ctx, KeyAccessTokenExpiresIn, strconv.FormatInt(now.UnixMilli()+1000, 10))
			},
			now:  now,
			want: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			ctx := context.Background()
			storage := NewMemoryStorage()
			tt.setup(ctx, storage)
			ts, err := NewTokenStore(storage, WithNow(testNowFunc(tt.now)))
			require.NoError(err)

			first := ts.IsAccessTokenValid(ctx)
			second := ts.IsAccessTokenValid(ctx)
			assert.Equal(tt.want, first)
			assert.Equal(first, second)
		})
	}
}

func TestTokenStore_validityIsCurrent(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	ts, err := NewTokenStore(NewMemoryStorage(), WithNow(func() time.Time { return now }))
	require.NoError(err)

	require.NoError(ts.StoreAccessToken(ctx, "a", time.Second, ""))
	assert.True(ts.IsAccessTokenValid(ctx))
	now = now.Add(time.Second)
	assert.True(ts.IsAccessTokenValid(ctx))
	now = now.Add(time.Millisecond)
	assert.False(ts.IsAccessTokenValid(ctx))
}

func TestTokenStore_Invalidate(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	storage := NewMemoryStorage()
	ts, err := NewTokenStore(storage)
	require.NoError(err)

	require.NoError(ts.StoreAccessToken(ctx, "access", time.Hour, "refresh"))
	require.NoError(ts.StoreIdToken(ctx, "id", time.Now().Add(time.Hour).Unix()))
	require.NoError(ts.Set(ctx, KeyIdTokenClaims, `{"sub":"alice"}`))
	require.NoError(ts.Set(ctx, KeyNonce, "nonce"))
	require.NoError(ts.Set(ctx, KeyUsername, "alice"))
	require.NoError(ts.Set(ctx, "unrelated", "kept"))

	require.NoError(ts.Invalidate(ctx))
	assert.Equal(map[string]string{
		KeyUsername: "alice",
		"unrelated": "kept",
	}, storage.Snapshot())
	assert.False(ts.IsAccessTokenValid(ctx))
	assert.False(ts.IsIdTokenValid(ctx))

	// invalidating twice is fine
	require.NoError(ts.Invalidate(ctx))
}

func TestTokenStore_storageErrors(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	boom := errors.New("boom")
	ts, err := NewTokenStore(failingStorage{err: boom})
	require.NoError(err)

	assert.Truef(errors.Is(ts.StoreAccessToken(ctx, "a", time.Minute, ""), boom), "StoreAccessToken() want %v", boom)
	assert.Truef(errors.Is(ts.StoreIdToken(ctx, "id", 1), boom), "StoreIdToken() want %v", boom)
	assert.Truef(errors.Is(ts.Invalidate(ctx), boom), "Invalidate() want %v", boom)
	assert.False(ts.IsAccessTokenValid(ctx))
	assert.Equal(AccessToken(""), ts.AccessToken(ctx))

	_, err = NewTokenStore(nil)
	assert.Truef(errors.Is(err, ErrNilParameter), "NewTokenStore() = %v, want %v", err, ErrNilParameter)
}
