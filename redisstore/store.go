// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package redisstore provides an oidc.Storage which keeps the session in
// Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/capimplicit/oidc"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every key when no prefix is provided.
const DefaultPrefix = "capimplicit:session:"

// Store is an oidc.Storage backed by Redis. Stores which share a server and
// prefix share one session, which lets several processes act for the same
// user. It is concurrently safe.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger hclog.Logger

	// ownsClient is set when the Store created its client and must close it
	ownsClient bool
}

// ensure that Store implements the oidc.Storage interface
var _ oidc.Storage = (*Store)(nil)

// New creates a Store using client.
//
// Supported options: WithPrefix, WithTTL, WithLogger
func New(client redis.UniversalClient, opt ...Option) (*Store, error) {
	const op = "redisstore.New"
	if client == nil {
		return nil, fmt.Errorf("%s: client is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getStoreOpts(opt...)
	if opts.withTTL < 0 {
		return nil, fmt.Errorf("%s: ttl is negative: %w", op, oidc.ErrInvalidParameter)
	}
	return &Store{
		client: client,
		prefix: opts.withPrefix,
		ttl:    opts.withTTL,
		logger: opts.withLogger,
	}, nil
}

// NewFromURL creates a Store with a client for a redis:// or rediss:// URL.
// The client is closed by Close.
//
// Supported options: WithPrefix, WithTTL, WithLogger
func NewFromURL(rawURL string, opt ...Option) (*Store, error) {
	const op = "redisstore.NewFromURL"
	if rawURL == "" {
		return nil, fmt.Errorf("%s: url is empty: %w", op, oidc.ErrInvalidParameter)
	}
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, err, oidc.ErrInvalidParameter)
	}
	s, err := New(redis.NewClient(redisOpts), opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.ownsClient = true
	return s, nil
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	const op = "Store.Ping"
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get implements oidc.Storage.Get
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "Store.Get"
	v, err := s.client.Get(ctx, s.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		s.logger.Error("unable to read key", "op", op, "key", key, "error", err)
		return "", false, fmt.Errorf("%s: unable to read %s: %w", op, key, err)
	}
	return v, true, nil
}

// Set implements oidc.Storage.Set. Every write renews the key's TTL.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "Store.Set"
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		s.logger.Error("unable to write key", "op", op, "key", key, "error", err)
		return fmt.Errorf("%s: unable to write %s: %w", op, key, err)
	}
	return nil
}

// Remove implements oidc.Storage.Remove with a single DEL, so the keys are
// removed atomically.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	const op = "Store.Remove"
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, s.key(k))
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		s.logger.Error("unable to remove keys", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close closes the client when it was created by NewFromURL.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}
