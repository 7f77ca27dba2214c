// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Keys of the persisted session.
const (
	KeyAccessToken          = "access_token"
	KeyAccessTokenExpiresIn = "access_token_expires_in"
	KeyAccessTokenStoredAt  = "access_token_stored_at"
	KeyRefreshToken         = "refresh_token"
	KeyIdToken              = "id_token"
	KeyIdTokenClaims        = "id_token_claims_obj"
	KeyIdTokenExpiresAt     = "id_token_expires_at"
	KeyIdTokenStoredAt      = "id_token_stored_at"
	KeyNonce                = "nonce"
	KeyUsername             = "USERNAME"
)

// sessionKeys are removed by TokenStore.Invalidate. The username survives
// so a login form can be prefilled.
var sessionKeys = []string{
	KeyAccessToken,
	KeyAccessTokenExpiresIn,
	KeyAccessTokenStoredAt,
	KeyRefreshToken,
	KeyIdToken,
	KeyIdTokenClaims,
	KeyIdTokenExpiresAt,
	KeyIdTokenStoredAt,
	KeyNonce,
}

// Storage is a string key/value store which persists a session.
// Implementations must be concurrently safe and Remove must delete all of
// its keys in one step, so no reader observes a partially removed session.
type Storage interface {
	// Get returns the value of key, and false when it isn't set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set the value of key.
	Set(ctx context.Context, key, value string) error

	// Remove deletes keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}

// MemoryStorage is an in memory Storage. It is concurrently safe.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// ensure that MemoryStorage implements the Storage interface
var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

// Get implements Storage.Get
func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements Storage.Set
func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements Storage.Remove
func (s *MemoryStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Snapshot returns a copy of every stored key and value.
func (s *MemoryStorage) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

// TokenStore persists the session's tokens and their expiry in a Storage.
// It is the single source of truth for the session: nothing else keeps a
// copy of the tokens.
type TokenStore struct {
	storage Storage
	now     func() time.Time
	logger  hclog.Logger
}

// NewTokenStore creates a TokenStore over s.
// Supported options: WithNow, WithLogger
func NewTokenStore(s Storage, opt ...Option) (*TokenStore, error) {
	const op = "oidc.NewTokenStore"
	if s == nil {
		return nil, fmt.Errorf("%s: storage is nil: %w", op, ErrNilParameter)
	}
	opts := getTokenStoreOpts(opt...)
	return &TokenStore{
		storage: s,
		now:     opts.withNowFunc,
		logger:  opts.withLogger,
	}, nil
}

// Get returns the value of key.
func (ts *TokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return ts.storage.Get(ctx, key)
}

// Set the value of key.
func (ts *TokenStore) Set(ctx context.Context, key, value string) error {
	return ts.storage.Set(ctx, key, value)
}

// Remove key.
func (ts *TokenStore) Remove(ctx context.Context, key string) error {
	return ts.storage.Remove(ctx, key)
}

// StoreAccessToken persists the access token, its absolute expiry (now +
// expiresIn) and the time it was stored. An empty refreshToken leaves the
// stored refresh token untouched.
func (ts *TokenStore) StoreAccessToken(ctx context.Context, token AccessToken, expiresIn time.Duration, refreshToken RefreshToken) error {
	const op = "TokenStore.StoreAccessToken"
	now := ts.now()
	expiresAt := now.Add(expiresIn)
	kvs := [][2]string{
		{KeyAccessToken, string(token)},
		{KeyAccessTokenExpiresIn, formatMillis(expiresAt)},
		{KeyAccessTokenStoredAt, formatMillis(now)},
	}
	if refreshToken != "" {
		kvs = append(kvs, [2]string{KeyRefreshToken, string(refreshToken)})
	}
	for _, kv := range kvs {
		if err := ts.storage.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("%s: unable to store %s: %w", op, kv[0], err)
		}
	}
	return nil
}

// StoreIdToken persists the id token, its expiry from the "exp" claim (in
// seconds since the epoch) and the time it was stored.
func (ts *TokenStore) StoreIdToken(ctx context.Context, token IdToken, exp int64) error {
	const op = "TokenStore.StoreIdToken"
	kvs := [][2]string{
		{KeyIdToken, string(token)},
		{KeyIdTokenExpiresAt, strconv.FormatInt(exp*1000, 10)},
		{KeyIdTokenStoredAt, formatMillis(ts.now())},
	}
	for _, kv := range kvs {
		if err := ts.storage.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("%s: unable to store %s: %w", op, kv[0], err)
		}
	}
	return nil
}

// AccessToken returns the stored access token, or "" when there is none.
func (ts *TokenStore) AccessToken(ctx context.Context) AccessToken {
	return AccessToken(ts.getString(ctx, KeyAccessToken))
}

// IdToken returns the stored id token, or "" when there is none.
func (ts *TokenStore) IdToken(ctx context.Context) IdToken {
	return IdToken(ts.getString(ctx, KeyIdToken))
}

// RefreshToken returns the stored refresh token, or "" when there is none.
func (ts *TokenStore) RefreshToken(ctx context.Context) RefreshToken {
	return RefreshToken(ts.getString(ctx, KeyRefreshToken))
}

// AccessTokenExpiresAt returns the stored access token expiry.
func (ts *TokenStore) AccessTokenExpiresAt(ctx context.Context) (time.Time, bool) {
	return ts.getMillis(ctx, KeyAccessTokenExpiresIn)
}

// IsAccessTokenValid reports whether an access token is stored and its
// expiry is at or after the current time. A storage failure is reported as
// not valid.
func (ts *TokenStore) IsAccessTokenValid(ctx context.Context) bool {
	if ts.AccessToken(ctx) == "" {
		return false
	}
	return ts.notExpired(ctx, KeyAccessTokenExpiresIn)
}

// IsIdTokenValid reports whether an id token is stored and its expiry is
// at or after the current time.
func (ts *TokenStore) IsIdTokenValid(ctx context.Context) bool {
	if ts.IdToken(ctx) == "" {
		return false
	}
	return ts.notExpired(ctx, KeyIdTokenExpiresAt)
}

// Invalidate removes every session key in a single Storage call.
func (ts *TokenStore) Invalidate(ctx context.Context) error {
	const op = "TokenStore.Invalidate"
	if err := ts.storage.Remove(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (ts *TokenStore) notExpired(ctx context.Context, key string) bool {
	expiresAt, ok := ts.getMillis(ctx, key)
	if !ok {
		return false
	}
	return !expiresAt.Before(ts.now().Truncate(time.Millisecond))
}

func (ts *TokenStore) getString(ctx context.Context, key string) string {
	v, ok, err := ts.storage.Get(ctx, key)
	if err != nil {
		ts.logger.Warn("unable to read from storage", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (ts *TokenStore) getMillis(ctx context.Context, key string) (time.Time, bool) {
	v := ts.getString(ctx, key)
	if v == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		ts.logger.Warn("stored timestamp is not a number", "key", key)
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// tokenStoreOptions is the set of available options for TokenStore functions
type tokenStoreOptions struct {
	withNowFunc func() time.Time
	withLogger  hclog.Logger
}

// tokenStoreDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func tokenStoreDefaults() tokenStoreOptions {
	return tokenStoreOptions{
		withNowFunc: time.Now,
		withLogger:  hclog.NewNullLogger(),
	}
}

// getTokenStoreOpts gets the token store defaults and applies the opt
// overrides passed in
func getTokenStoreOpts(opt ...Option) tokenStoreOptions {
	opts := tokenStoreDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
