package usecase

import (
	"context"
	"log/slog"

	"placectl/internal/domain"
)

// Redirect targets for settled gate states.
const (
	LoginPath        = "/"
	UnauthorizedPath = "/unauthorized"
)

// GateState is a settled outcome of an authorization check. Each check
// starts in an implicit checking state and settles exactly once; a new
// check starts a fresh instance, never re-entering a settled one.
type GateState string

const (
	StateAuthorized      GateState = "authorized"
	StateUnauthenticated GateState = "unauthenticated"
	StateForbidden       GateState = "forbidden"
)

// Decision is the render-or-redirect outcome handed to a protected
// screen. Profile is set only when Authorized; RedirectTo only
// otherwise.
type Decision struct {
	State      GateState
	Profile    *domain.Profile
	RedirectTo string
}

// Authorize gates a protected screen behind a role allow-list. A
// protected view must never render before this check settles on
// StateAuthorized.
type Authorize struct {
	store    domain.TokenStore
	profiles domain.ProfileSource
	logger   *slog.Logger
}

// NewAuthorize creates a new Authorize usecase.
func NewAuthorize(s domain.TokenStore, p domain.ProfileSource, l *slog.Logger) *Authorize {
	return &Authorize{store: s, profiles: p, logger: l}
}

// Execute settles one authorization check. No token means no profile
// fetch is attempted; any fetch failure redirects to login rather than
// retrying. An empty allow-list admits no one.
func (uc *Authorize) Execute(ctx context.Context, allowed ...domain.Role) Decision {
	token, ok := uc.store.Token()
	if !ok {
		return Decision{State: StateUnauthenticated, RedirectTo: LoginPath}
	}

	profile, err := uc.profiles.Get(ctx, token, false)
	if err != nil {
		uc.logger.WarnContext(ctx, "authorization check failed", "error", err)
		return Decision{State: StateUnauthenticated, RedirectTo: LoginPath}
	}

	// The session may have been torn down while the fetch was in
	// flight; a resolved profile is only trusted against the token the
	// store holds now.
	if current, ok := uc.store.Token(); !ok || current != token {
		return Decision{State: StateUnauthenticated, RedirectTo: LoginPath}
	}

	for _, role := range allowed {
		if profile.Role == role {
			return Decision{State: StateAuthorized, Profile: profile}
		}
	}
	return Decision{State: StateForbidden, RedirectTo: UnauthorizedPath}
}
