package oidc

// AuthState is the authentication state of a Session. It is derived from
// the stored session and the current time on every read, it is never
// stored.
type AuthState int

const (
	// Anonymous means there's no session and no login in progress.
	Anonymous AuthState = iota

	// PendingRedirect means a nonce was stored and the window was sent to
	// the provider, but no tokens were returned yet.
	PendingRedirect

	// Authenticated means a valid access token is stored.
	Authenticated

	// Expired means an access token is stored but it has expired.
	Expired
)

// String returns the state name.
func (s AuthState) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case PendingRedirect:
		return "pending_redirect"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}
