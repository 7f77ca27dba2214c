// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk representation of a Config.
type FileConfig struct {
	Host                string   `yaml:"host"`
	ClientId            string   `yaml:"client_id"`
	Secret              string   `yaml:"secret"`
	Scope               string   `yaml:"scope"`
	RedirectUri         string   `yaml:"redirect_uri"`
	SilentRedirectUri   string   `yaml:"redirect_silent_iframe_uri"`
	Origin              string   `yaml:"origin"`
	RefreshTokenTimeout string   `yaml:"refresh_token_timeout"`
	ImplicitFlow        bool     `yaml:"implicit_flow"`
	SilentLogin         bool     `yaml:"silent_login"`
	PublicUrls          []string `yaml:"public_urls"`
	ProviderCA          string   `yaml:"provider_ca"`
}

// LoadConfigFile reads a YAML config file and composes a Config from it.
// The opt are applied after the file's values, see NewConfig.
func LoadConfigFile(path string, opt ...Option) (*Config, error) {
	const op = "oidc.LoadConfigFile"
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read %s: %w", op, path, err)
	}
	c, err := ParseConfig(raw, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return c, nil
}

// ParseConfig composes a Config from YAML.
func ParseConfig(raw []byte, opt ...Option) (*Config, error) {
	const op = "oidc.ParseConfig"
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("%s: unable to decode yaml: %s: %w", op, err, ErrConfiguration)
	}
	opts, err := fc.options()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewConfig(fc.Host, fc.ClientId, fc.Scope, append(opts, opt...)...)
}

func (fc FileConfig) options() ([]Option, error) {
	opts := []Option{
		WithClientSecret(ClientSecret(fc.Secret)),
		WithRedirectUri(fc.RedirectUri),
		WithSilentRedirectUri(fc.SilentRedirectUri),
		WithOrigin(fc.Origin),
		WithPublicUrls(fc.PublicUrls...),
		WithProviderCA(fc.ProviderCA),
	}
	if fc.RefreshTokenTimeout != "" {
		d, err := time.ParseDuration(fc.RefreshTokenTimeout)
		if err != nil {
			return nil, fmt.Errorf("refresh_token_timeout %q is invalid: %s: %w", fc.RefreshTokenTimeout, err, ErrConfiguration)
		}
		opts = append(opts, WithRefreshTokenTimeout(d))
	}
	if fc.ImplicitFlow {
		opts = append(opts, WithImplicitFlow())
	}
	if fc.SilentLogin {
		opts = append(opts, WithSilentLogin())
	}
	return opts, nil
}
