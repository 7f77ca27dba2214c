// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
)

// SessionTerminator ends the session at the identity provider. The local
// storage is always cleared afterwards by Session.LogOut.
type SessionTerminator interface {
	Terminate(ctx context.Context) error
}

// LocalTermination only clears local storage.
type LocalTermination struct{}

// Terminate implements SessionTerminator and does nothing.
func (LocalTermination) Terminate(context.Context) error { return nil }

// IdentityService is an external identity provider SDK which owns the
// provider side of the session, including token revocation.
type IdentityService interface {
	Logout(ctx context.Context) error
}

// DelegatedTermination hands the logout to an external IdentityService.
type DelegatedTermination struct {
	Service IdentityService
}

// Terminate implements SessionTerminator.
func (d DelegatedTermination) Terminate(ctx context.Context) error {
	const op = "DelegatedTermination.Terminate"
	if d.Service == nil {
		return fmt.Errorf("%s: identity service is nil: %w", op, ErrNilParameter)
	}
	if err := d.Service.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TicketExchanger trades an access token for a ticket of a secondary
// content API.
type TicketExchanger interface {
	ExchangeTicket(ctx context.Context, token AccessToken) (string, error)
}
