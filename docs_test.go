// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package capimplicit_test

import (
	"context"
	"fmt"

	"github.com/hashicorp/capimplicit/oidc"
)

func Example_oidc() {
	ctx := context.Background()

	// Create a new Config which relies on a stored session, without the
	// implicit flow redirects.
	c, err := oidc.NewConfig(
		"https://your-idp.example.com",
		"your_client_id",
		"openid",
	)
	if err != nil {
		// handle error
	}

	storage := oidc.NewMemoryStorage()
	s, err := oidc.NewSession(c, oidc.NewTestBrowser("https://your-app.example.com/"), storage)
	if err != nil {
		// handle error
	}
	defer s.Done()

	if err := s.Init(ctx); err != nil {
		// handle error
	}
	fmt.Println(s.State(ctx), s.IsLoggedIn(ctx))

	// Output:
	// anonymous false
}
