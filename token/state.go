package token

import (
	"time"

	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/sessions"
)

// State is where the cached token stands relative to the clock and the auth server.
type State int

const (
	// NoToken: nothing cached.
	NoToken State = iota
	// TokenFresh: cached with more than the safety margin left.
	TokenFresh
	// TokenStale: cached but expiring within the safety margin, or with an unknown TTL.
	TokenStale
	// TokenInvalid: the auth server refused to refresh the cached token.
	TokenInvalid
)

func (s State) String() string {
	switch s {
	case NoToken:
		return "NoToken"
	case TokenFresh:
		return "TokenFresh"
	case TokenStale:
		return "TokenStale"
	case TokenInvalid:
		return "TokenInvalid"
	default:
		return "Unknown"
	}
}

// Action is the next step the manager takes.
type Action int

const (
	// ActionLogin logs in with the cached credentials.
	ActionLogin Action = iota
	// ActionRefresh runs the refresh decision tree.
	ActionRefresh
	// ActionAnonymousRefresh calls the refresh endpoint without a bearer token.
	ActionAnonymousRefresh
	// ActionRefreshToken calls the refresh endpoint with the cached token.
	ActionRefreshToken
	// ActionProbe validates the cached token without replacing it.
	ActionProbe
	// ActionStore keeps the token carried by the last response.
	ActionStore
	// ActionSurface returns the last response to the caller unchanged.
	ActionSurface
)

func (a Action) String() string {
	switch a {
	case ActionLogin:
		return "login"
	case ActionRefresh:
		return "refresh"
	case ActionAnonymousRefresh:
		return "anonymous-refresh"
	case ActionRefreshToken:
		return "refresh-token"
	case ActionProbe:
		return "probe"
	case ActionStore:
		return "store"
	case ActionSurface:
		return "surface"
	default:
		return "unknown"
	}
}

// Classify derives the token state from a session snapshot and the clock.
func Classify(snap sessions.Snapshot, now time.Time, margin time.Duration) State {
	if !snap.HasToken() {
		return NoToken
	}
	if !snap.Token.HasExpiry() {
		return TokenStale
	}
	if now.After(snap.Token.Expiry.Add(-margin)) {
		return TokenStale
	}
	return TokenFresh
}

// EnsureAction picks the first step of EnsureFreshToken.
func EnsureAction(state State, hasCredentials bool) Action {
	switch {
	case state == NoToken && hasCredentials:
		return ActionLogin
	case state == TokenFresh:
		return ActionProbe
	default:
		return ActionRefresh
	}
}

// RefreshAction picks the first step of Refresh.
func RefreshAction(state State, hasCredentials bool) Action {
	switch {
	case state == NoToken && hasCredentials:
		return ActionLogin
	case state == NoToken:
		return ActionAnonymousRefresh
	default:
		return ActionRefreshToken
	}
}

// RecoveryPolicy controls how a failed refresh is handled.
type RecoveryPolicy struct {
	// StrictServerErrors surfaces 5xx refresh responses instead of re-logging in.
	StrictServerErrors bool
}

// RefreshOutcome is the state a refresh response moves the session to.
func RefreshOutcome(result oauthmodel.AuthResult) State {
	if result.IsSuccess() {
		return TokenFresh
	}
	return TokenInvalid
}

// RecoveryAction decides what follows a refresh call made with the cached token.
// Any non-success falls back to a login when credentials are available.
func RecoveryAction(resp *oauthmodel.Response, hasCredentials bool, policy RecoveryPolicy) Action {
	if RefreshOutcome(resp.Result) == TokenFresh {
		return ActionStore
	}
	if !hasCredentials {
		return ActionSurface
	}
	if policy.StrictServerErrors && resp.IsServerError() {
		return ActionSurface
	}
	return ActionLogin
}
