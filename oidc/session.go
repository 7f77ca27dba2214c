// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/capimplicit/jwt"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Session drives the implicit flow for one browser context: it decides on
// load whether to resume a stored session, process a returned fragment or
// redirect to the provider, keeps the access token fresh and notifies
// observers of lifecycle events.
//
// Session operations are serialized. Events are delivered to observers
// after the operation's storage writes, in order, and before the main
// window is navigated.
type Session struct {
	config     *Config
	browser    BrowserContext
	store      *TokenStore
	channel    *SilentRefreshChannel
	endpoint   *TokenEndpoint
	terminator SessionTerminator
	exchanger  TicketExchanger
	keySet     jwt.KeySet
	logger     hclog.Logger
	now        func() time.Time

	// mu serializes every operation which writes to the store
	mu        sync.Mutex
	observers []Observer
	outbox    outbox

	// dispatchMu is taken before mu is released so the events of two
	// operations are never interleaved.
	dispatchMu sync.Mutex

	// generation is bumped whenever the session is invalidated. A refresh
	// started in an older generation is dropped.
	generation   uint64
	refreshTimer *time.Timer

	// scheduledExpiry is the access token expiry the refresh timer was last
	// armed for, due at scheduledDue.
	scheduledExpiry time.Time
	scheduledDue    time.Time

	// done is set by Done. Every later operation returns ErrSessionDone.
	done bool

	ticket          string
	ticketExchanged bool

	// backgroundCtx is the context used by timer driven refreshes
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any refresh in flight
	backgroundCtxCancel context.CancelFunc
}

// outbox holds what an operation wants to happen once it released mu.
type outbox struct {
	events   []Event
	navigate string
}

// NewSession creates a Session. Nothing is read or written until Init is
// called.
//
// Supported options:
//
//	WithNow
//	WithLogger (defaults to c.Logger)
//	WithKeySet
//	WithSessionTerminator
//	WithTicketExchanger
//	WithObserver
func NewSession(c *Config, b BrowserContext, s Storage, opt ...Option) (*Session, error) {
	const op = "oidc.NewSession"
	switch {
	case c == nil:
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	case b == nil:
		return nil, fmt.Errorf("%s: browser context is nil: %w", op, ErrNilParameter)
	case s == nil:
		return nil, fmt.Errorf("%s: storage is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	opts := getSessionOpts(opt...)
	logger := opts.withLogger
	if logger == nil {
		logger = c.Logger
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	store, err := NewTokenStore(s, WithNow(opts.withNowFunc), WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	channel, err := NewSilentRefreshChannel(b, WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endpoint, err := NewTokenEndpoint(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		config:              c,
		browser:             b,
		store:               store,
		channel:             channel,
		endpoint:            endpoint,
		terminator:          opts.withTerminator,
		exchanger:           opts.withTicketExchanger,
		keySet:              opts.withKeySet,
		logger:              logger,
		now:                 opts.withNowFunc,
		observers:           opts.withObservers,
		backgroundCtx:       ctx,
		backgroundCtxCancel: cancel,
	}, nil
}

// AddObserver registers o for every event emitted after it returns.
func (s *Session) AddObserver(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Init decides the entry path on application load:
//   - with the implicit flow disabled, a valid stored access token is
//     resumed without any network call.
//   - with the implicit flow enabled, a returned fragment is processed
//     first and always wins over a stored token. Without a fragment a valid
//     stored token is resumed, otherwise a redirect to the provider is made
//     when SilentLogin is enabled and the current URL isn't public.
//
// A fragment which fails token validation invalidates any stored session
// before the error is returned. Provider error responses and malformed
// fragments leave the stored session untouched.
func (s *Session) Init(ctx context.Context) error {
	const op = "Session.Init"
	return s.locked(func() error {
		if !s.config.ImplicitFlow {
			if s.store.IsAccessTokenValid(ctx) {
				s.logger.Debug("resuming stored session", "op", op)
				s.resume(ctx)
			}
			return nil
		}

		currentURL := s.browser.CurrentURL()
		hash := HashOf(currentURL)
		if hash != "" && !IsRouteHash(hash) {
			if err := s.browser.ClearHash(); err != nil {
				s.logger.Warn("unable to clear location hash", "op", op, "error", err)
			}
		}
		params, err := ParseFragment(hash)
		if err != nil {
			return s.fail(op, err)
		}
		switch {
		case params != nil:
			s.logger.Debug("processing returned fragment", "op", op)
			err := s.processFragment(ctx, params)
			if isValidationFailure(err) {
				s.cancelRefreshLocked()
				s.ticket = ""
				if invErr := s.store.Invalidate(ctx); invErr != nil {
					s.logger.Error("unable to invalidate session", "op", op, "error", invErr)
				}
			}
			return err
		case s.store.IsAccessTokenValid(ctx):
			s.logger.Debug("resuming stored session", "op", op)
			s.resume(ctx)
			return nil
		case s.config.SilentLogin && !s.config.IsPublicURL(currentURL):
			s.logger.Debug("no session, redirecting to login", "op", op)
			return s.redirect(ctx)
		default:
			s.logger.Debug("no session, staying anonymous", "op", op)
			return nil
		}
	})
}

// ProcessFragment validates and stores the tokens of a fragment returned by
// the provider, for example the hash of a hidden refresh frame. It is an
// error for hash to carry no parameters.
func (s *Session) ProcessFragment(ctx context.Context, hash string) error {
	const op = "Session.ProcessFragment"
	return s.locked(func() error {
		params, err := ParseFragment(hash)
		if err != nil {
			return s.fail(op, err)
		}
		if params == nil {
			return s.fail(op, fmt.Errorf("no parameters in fragment: %w", ErrMalformedFragment))
		}
		return s.processFragment(ctx, params)
	})
}

// Login starts an implicit flow login. A session whose id token and access
// token are both valid is resumed instead.
func (s *Session) Login(ctx context.Context) error {
	const op = "Session.Login"
	if !s.config.ImplicitFlow {
		return fmt.Errorf("%s: implicit flow is disabled: %w", op, ErrInvalidParameter)
	}
	return s.locked(func() error {
		if s.store.IsIdTokenValid(ctx) && s.store.IsAccessTokenValid(ctx) {
			s.resume(ctx)
			return nil
		}
		return s.redirect(ctx)
	})
}

// SilentRefresh re-runs the implicit flow in a hidden frame and stores the
// returned tokens.
func (s *Session) SilentRefresh(ctx context.Context) error {
	gen, err := s.currentGeneration("Session.SilentRefresh")
	if err != nil {
		return err
	}
	return s.silentRefresh(ctx, gen)
}

// PasswordLogin exchanges the user's credentials for a token at the token
// endpoint. A 401 emits "unauthorized" before "error".
func (s *Session) PasswordLogin(ctx context.Context, username, password string) error {
	const op = "Session.PasswordLogin"
	if _, err := s.currentGeneration(op); err != nil {
		return err
	}
	resp, err := s.endpoint.PasswordGrant(ctx, username, password)
	return s.locked(func() error {
		if err != nil {
			return s.fail(op, err)
		}
		if err := s.storeTokenResponse(ctx, resp); err != nil {
			return s.fail(op, err)
		}
		if err := s.store.Set(ctx, KeyUsername, username); err != nil {
			return s.fail(op, err)
		}
		s.issued(ctx)
		return nil
	})
}

// RefreshToken exchanges the stored refresh token for a new access token.
func (s *Session) RefreshToken(ctx context.Context) error {
	gen, err := s.currentGeneration("Session.RefreshToken")
	if err != nil {
		return err
	}
	return s.refreshToken(ctx, gen)
}

// LogOut terminates the session with the configured SessionTerminator and
// then invalidates the local session, even when the termination failed.
func (s *Session) LogOut(ctx context.Context) error {
	const op = "Session.LogOut"
	if _, err := s.currentGeneration(op); err != nil {
		return err
	}
	var result *multierror.Error
	terminator := s.terminator
	if terminator == nil {
		terminator = LocalTermination{}
	}
	if err := terminator.Terminate(ctx); err != nil {
		s.logger.Error("unable to terminate session", "op", op, "error", err)
		result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
	}
	if err := s.InvalidateSession(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
	}
	return result.ErrorOrNil()
}

// InvalidateSession removes the stored session and cancels any scheduled
// refresh. A refresh already in flight is dropped when it completes. The
// stored username is kept.
func (s *Session) InvalidateSession(ctx context.Context) error {
	const op = "Session.InvalidateSession"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return fmt.Errorf("%s: %w", op, ErrSessionDone)
	}
	s.cancelRefreshLocked()
	s.ticket = ""
	if err := s.store.Invalidate(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// State derives the authentication state from storage and the current time.
func (s *Session) State(ctx context.Context) AuthState {
	if s.store.AccessToken(ctx) != "" {
		if s.store.IsAccessTokenValid(ctx) {
			return Authenticated
		}
		return Expired
	}
	if nonce, ok, _ := s.store.Get(ctx, KeyNonce); ok && nonce != "" {
		return PendingRedirect
	}
	return Anonymous
}

// Token returns the stored access token, or "" when there is none.
func (s *Session) Token(ctx context.Context) AccessToken {
	return s.store.AccessToken(ctx)
}

// IsLoggedIn reports whether a valid access token is stored.
func (s *Session) IsLoggedIn(ctx context.Context) bool {
	return s.store.IsAccessTokenValid(ctx)
}

// Username returns the stored username, or "" when there is none.
func (s *Session) Username(ctx context.Context) string {
	v, _, err := s.store.Get(ctx, KeyUsername)
	if err != nil {
		s.logger.Warn("unable to read username", "error", err)
		return ""
	}
	return v
}

// Ticket returns the ticket of the configured TicketExchanger, or "" when
// none was exchanged.
func (s *Session) Ticket() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

// Done stops any scheduled refresh and cancels one in flight. Every later
// operation returns ErrSessionDone, reads keep working. The stored session
// is kept so the next load can resume it.
func (s *Session) Done() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.cancelRefreshLocked()
	if s.backgroundCtxCancel != nil {
		s.backgroundCtxCancel()
		s.backgroundCtxCancel = nil
	}
}

// processFragment must be called with s.mu held. Nothing is stored unless
// every check passed.
func (s *Session) processFragment(ctx context.Context, params FragmentParams) error {
	const op = "Session.processFragment"
	if code, ok := params.Get(ParamError); ok {
		desc, _ := params.Get(ParamErrorDescription)
		uri, _ := params.Get(ParamErrorUri)
		resp := AuthenErrorResponse{Error: code, Description: desc, Uri: uri}
		return s.fail(op, fmt.Errorf("provider error %q: %s: %w", resp.Error, resp.Description, ErrLoginFailed))
	}
	if _, ok := params.Get(ParamSessionState); !ok {
		return s.fail(op, ErrMissingSessionState)
	}
	rawIdToken, _ := params.Get(ParamIdToken)
	accessToken, ok := params.Get(ParamAccessToken)
	if !ok || accessToken == "" {
		return s.fail(op, fmt.Errorf("missing access_token: %w", ErrMalformedFragment))
	}

	nonce, _, err := s.store.Get(ctx, KeyNonce)
	if err != nil {
		return s.fail(op, fmt.Errorf("unable to read nonce: %w", err))
	}
	decoded, err := DecodeIdToken(rawIdToken, nonce)
	if err != nil {
		return s.fail(op, err)
	}
	if s.keySet != nil {
		if _, err := s.keySet.VerifySignature(ctx, rawIdToken); err != nil {
			return s.fail(op, fmt.Errorf("%s: %w", err, ErrInvalidSignature))
		}
	}

	exp, _ := decoded.Payload.Int64("exp")
	var expiresIn time.Duration
	if raw, ok := params.Get(ParamExpiresIn); ok {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return s.fail(op, fmt.Errorf("expires_in %q is not a number: %w", raw, ErrMalformedFragment))
		}
		expiresIn = time.Duration(secs) * time.Second
	} else {
		expiresIn = time.Unix(exp, 0).Sub(s.now())
	}
	claimsJSON, err := json.Marshal(decoded.Payload)
	if err != nil {
		return s.fail(op, fmt.Errorf("unable to encode claims: %w", err))
	}

	if err := s.store.StoreIdToken(ctx, decoded.IdToken, exp); err != nil {
		return s.fail(op, err)
	}
	if err := s.store.Set(ctx, KeyIdTokenClaims, string(claimsJSON)); err != nil {
		return s.fail(op, err)
	}
	if err := s.store.StoreAccessToken(ctx, AccessToken(accessToken), expiresIn, ""); err != nil {
		return s.fail(op, err)
	}
	username, ok := decoded.Payload.String("preferred_username")
	if !ok || username == "" {
		username = decoded.Payload.Subject()
	}
	if err := s.store.Set(ctx, KeyUsername, username); err != nil {
		return s.fail(op, err)
	}
	s.logger.Debug("tokens issued from fragment", "op", op, "expires_in", expiresIn)
	s.issued(ctx)
	return nil
}

// resume must be called with s.mu held.
func (s *Session) resume(ctx context.Context) {
	s.issued(ctx)
}

// issued must be called with s.mu held, after the store was updated.
func (s *Session) issued(ctx context.Context) {
	s.scheduleRefreshLocked(ctx)
	s.emit(Event{Type: EventTokenIssued})
	s.exchangeTicket(ctx)
}

// exchangeTicket must be called with s.mu held. A ticket is exchanged once
// per Session.
func (s *Session) exchangeTicket(ctx context.Context) {
	const op = "Session.exchangeTicket"
	if s.exchanger == nil || s.ticketExchanged {
		return
	}
	s.ticketExchanged = true
	ticket, err := s.exchanger.ExchangeTicket(ctx, s.store.AccessToken(ctx))
	if err != nil {
		s.logger.Error("unable to exchange ticket", "op", op, "error", err)
		s.emit(Event{Type: EventError, Err: fmt.Errorf("%s: %w", op, err)})
		return
	}
	s.ticket = ticket
	s.emit(Event{Type: EventTicketExchanged})
}

// redirect must be called with s.mu held. The only write is the new nonce.
func (s *Session) redirect(ctx context.Context) error {
	const op = "Session.redirect"
	nonce, err := NewNonce()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Set(ctx, KeyNonce, nonce); err != nil {
		return fmt.Errorf("%s: unable to store nonce: %w", op, err)
	}
	loginURL, err := LoginURL(s.config, nonce)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.emit(Event{Type: EventImplicitRedirect, URL: loginURL})
	s.outbox.navigate = loginURL
	return nil
}

func (s *Session) silentRefresh(ctx context.Context, gen uint64) error {
	const op = "Session.silentRefresh"
	if !s.config.ImplicitFlow {
		return fmt.Errorf("%s: implicit flow is disabled: %w", op, ErrInvalidParameter)
	}
	var loginURL string
	err := s.locked(func() error {
		if gen != s.generation {
			return fmt.Errorf("%s: %w", op, ErrSessionInvalidated)
		}
		nonce, err := NewNonce()
		if err != nil {
			return s.fail(op, err)
		}
		if err := s.store.Set(ctx, KeyNonce, nonce); err != nil {
			return s.fail(op, fmt.Errorf("unable to store nonce: %w", err))
		}
		loginURL, err = LoginURL(s.config, nonce, WithRedirectUri(s.config.SilentRedirectUri), WithPrompt("none"))
		if err != nil {
			return s.fail(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("starting silent refresh", "op", op)
	hash, refreshErr := s.channel.Refresh(ctx, loginURL)
	return s.locked(func() error {
		if gen != s.generation {
			s.logger.Debug("session invalidated during silent refresh", "op", op)
			return fmt.Errorf("%s: %w", op, ErrSessionInvalidated)
		}
		if refreshErr != nil {
			return s.fail(op, refreshErr)
		}
		params, err := ParseFragment(hash)
		if err != nil {
			return s.fail(op, err)
		}
		if params == nil {
			return s.fail(op, fmt.Errorf("silent refresh returned no fragment: %w", ErrLoginFailed))
		}
		return s.processFragment(ctx, params)
	})
}

func (s *Session) refreshToken(ctx context.Context, gen uint64) error {
	const op = "Session.refreshToken"
	refreshToken := s.store.RefreshToken(ctx)
	if refreshToken == "" {
		return s.locked(func() error {
			return s.fail(op, fmt.Errorf("no refresh token stored: %w", ErrInvalidParameter))
		})
	}
	resp, err := s.endpoint.RefreshGrant(ctx, refreshToken)
	return s.locked(func() error {
		if gen != s.generation {
			s.logger.Debug("session invalidated during token refresh", "op", op)
			return fmt.Errorf("%s: %w", op, ErrSessionInvalidated)
		}
		if err != nil {
			return s.fail(op, err)
		}
		if err := s.storeTokenResponse(ctx, resp); err != nil {
			return s.fail(op, err)
		}
		s.issued(ctx)
		return nil
	})
}

func (s *Session) storeTokenResponse(ctx context.Context, resp *TokenResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access_token: %w", ErrProtocol)
	}
	return s.store.StoreAccessToken(ctx, resp.AccessToken, resp.ExpiresIn, resp.RefreshToken)
}

// scheduleRefreshLocked arms the refresh timer to fire RefreshTokenTimeout
// before the stored access token expires, see refreshDelay. The implicit
// flow refreshes in a hidden frame, otherwise a stored refresh token is
// used. Nothing is scheduled when neither is possible, or when the last
// scheduled refresh is due and the token expires no later than the one it
// was armed for.
func (s *Session) scheduleRefreshLocked(ctx context.Context) {
	const op = "Session.scheduleRefresh"
	if s.backgroundCtxCancel == nil {
		return
	}
	expiresAt, ok := s.store.AccessTokenExpiresAt(ctx)
	if !ok {
		s.stopTimerLocked()
		return
	}
	now := s.now()
	if !s.scheduledExpiry.IsZero() && !now.Before(s.scheduledDue) && !expiresAt.After(s.scheduledExpiry) {
		s.logger.Debug("token expiry did not advance, refresh not rescheduled", "op", op, "expires_at", expiresAt)
		return
	}
	s.stopTimerLocked()
	refresh := s.silentRefresh
	if !s.config.ImplicitFlow {
		if s.store.RefreshToken(ctx) == "" {
			return
		}
		refresh = s.refreshToken
	}
	delay, ok := refreshDelay(now, expiresAt, s.config.RefreshTokenTimeout)
	if !ok {
		s.logger.Debug("token has no remaining lifetime, refresh not scheduled", "op", op)
		return
	}
	s.scheduledExpiry = expiresAt
	s.scheduledDue = now.Add(delay)
	gen := s.generation
	bgCtx := s.backgroundCtx
	s.logger.Trace("refresh scheduled", "op", op, "in", delay)
	s.refreshTimer = time.AfterFunc(delay, func() {
		if err := refresh(bgCtx, gen); err != nil {
			s.logger.Debug("scheduled refresh failed", "op", op, "error", err)
		}
	})
}

// minRefreshDelay is the shortest wait between a token being issued and its
// scheduled refresh.
const minRefreshDelay = time.Second

// refreshDelay returns how long to wait before refreshing a token expiring
// at expiresAt. The refresh is due lead before expiry. A token living no
// longer than lead is refreshed after half its remaining lifetime, waiting
// at least minRefreshDelay. It returns false for a token already expired.
func refreshDelay(now, expiresAt time.Time, lead time.Duration) (time.Duration, bool) {
	lifetime := expiresAt.Sub(now)
	if lifetime <= 0 {
		return 0, false
	}
	if lifetime > lead {
		return lifetime - lead, true
	}
	delay := lifetime / 2
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}
	return delay, true
}

func (s *Session) cancelRefreshLocked() {
	s.generation++
	s.scheduledExpiry = time.Time{}
	s.scheduledDue = time.Time{}
	s.stopTimerLocked()
}

// currentGeneration returns the session generation, or ErrSessionDone once
// Done was called.
func (s *Session) currentGeneration(op string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return 0, fmt.Errorf("%s: %w", op, ErrSessionDone)
	}
	return s.generation, nil
}

// isValidationFailure reports whether err means the returned tokens failed
// validation, as opposed to the provider refusing the login.
func isValidationFailure(err error) bool {
	for _, target := range []error{ErrMissingSessionState, ErrMalformedToken, ErrNonceMismatch, ErrMissingSubject, ErrInvalidSignature} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Session) stopTimerLocked() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
}

// fail must be called with s.mu held. It logs err, queues the events of a
// failed attempt and returns err wrapped with op.
func (s *Session) fail(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	s.logger.Error("authentication failed", "op", op, "error", err)
	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusUnauthorized {
		s.emit(Event{Type: EventUnauthorized})
	}
	s.emit(Event{Type: EventError, Err: err})
	return err
}

func (s *Session) emit(e Event) {
	s.outbox.events = append(s.outbox.events, e)
}

// locked runs fn with s.mu held, then delivers the queued events and
// performs the queued navigation.
func (s *Session) locked(fn func() error) error {
	const op = "Session.locked"
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrSessionDone)
	}
	err := fn()
	out := s.outbox
	s.outbox = outbox{}
	observers := append([]Observer(nil), s.observers...)

	s.dispatchMu.Lock()
	s.mu.Unlock()
	defer s.dispatchMu.Unlock()
	for _, e := range out.events {
		for _, o := range observers {
			o.Observe(e)
		}
	}
	if out.navigate != "" {
		if navErr := s.browser.Navigate(out.navigate); navErr != nil {
			s.logger.Error("unable to navigate", "op", op, "error", navErr)
			return multierror.Append(err, fmt.Errorf("%s: unable to navigate: %w", op, navErr))
		}
	}
	return err
}

// sessionOptions is the set of available options for Session functions
type sessionOptions struct {
	withNowFunc         func() time.Time
	withLogger          hclog.Logger
	withKeySet          jwt.KeySet
	withTerminator      SessionTerminator
	withTicketExchanger TicketExchanger
	withObservers       []Observer
}

// sessionDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func sessionDefaults() sessionOptions {
	return sessionOptions{
		withNowFunc:    time.Now,
		withTerminator: LocalTermination{},
	}
}

// getSessionOpts gets the session defaults and applies the opt overrides
// passed in
func getSessionOpts(opt ...Option) sessionOptions {
	opts := sessionDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithKeySet enables id_token signature verification with ks. Without it
// the id_token is only decoded and its nonce and subject checked.
func WithKeySet(ks jwt.KeySet) Option {
	return func(o interface{}) {
		if o, ok := o.(*sessionOptions); ok {
			o.withKeySet = ks
		}
	}
}

// WithSessionTerminator provides how LogOut ends the provider session.
// Defaults to LocalTermination.
func WithSessionTerminator(t SessionTerminator) Option {
	return func(o interface{}) {
		if o, ok := o.(*sessionOptions); ok && t != nil {
			o.withTerminator = t
		}
	}
}

// WithTicketExchanger provides an exchanger which is asked for a ticket
// after the first token is issued.
func WithTicketExchanger(e TicketExchanger) Option {
	return func(o interface{}) {
		if o, ok := o.(*sessionOptions); ok {
			o.withTicketExchanger = e
		}
	}
}

// WithObserver registers observers when the Session is created.
func WithObserver(observers ...Observer) Option {
	return func(o interface{}) {
		if o, ok := o.(*sessionOptions); ok {
			for _, obs := range observers {
				if obs != nil {
					o.withObservers = append(o.withObservers, obs)
				}
			}
		}
	}
}
