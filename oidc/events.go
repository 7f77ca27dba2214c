// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

// EventType is the name of a Session lifecycle event.
type EventType string

const (
	// EventTokenIssued is emitted once storage holds a valid token.
	EventTokenIssued EventType = "token_issued"

	// EventTicketExchanged is emitted after a TicketExchanger returned a
	// ticket for the session.
	EventTicketExchanged EventType = "ticket_exchanged"

	// EventImplicitRedirect is emitted with the login URL right before the
	// main window is navigated to it.
	EventImplicitRedirect EventType = "implicit_redirect"

	// EventUnauthorized is emitted when the token endpoint answered 401.
	EventUnauthorized EventType = "unauthorized"

	// EventError is emitted for every failed login or refresh attempt.
	EventError EventType = "error"
)

// Event is a Session lifecycle event.
type Event struct {
	Type EventType

	// URL is set for EventImplicitRedirect.
	URL string

	// Err is set for EventError.
	Err error
}

// Observer receives Session events. Events are delivered synchronously, in
// the order they happened, and always after the storage changes they
// report. An Observer may read the Session (State, Token, etc) but must not
// start another Session operation from Observe.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a func to an Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }
