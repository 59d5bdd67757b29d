package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"placectl/internal/domain"
)

// Login exchanges credentials for a session. On success the token is
// persisted before control returns, so login is complete from the rest
// of the system's viewpoint, and the profile cache is invalidated so a
// freshly authenticated user never reads a pre-login entry.
type Login struct {
	exchanger domain.CredentialExchanger
	store     domain.TokenStore
	profiles  domain.ProfileSource
	logger    *slog.Logger
}

// NewLogin creates a new Login usecase.
func NewLogin(e domain.CredentialExchanger, s domain.TokenStore, p domain.ProfileSource, l *slog.Logger) *Login {
	return &Login{exchanger: e, store: s, profiles: p, logger: l}
}

// Execute performs the credential exchange. The result holds either a
// Session (already persisted) or a Challenge the caller must complete.
func (uc *Login) Execute(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	result, err := uc.exchanger.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if result.Session != nil {
		if err := uc.store.Save(result.Session.AccessToken); err != nil {
			return nil, fmt.Errorf("persisting session: %w", err)
		}
		uc.profiles.Invalidate()
		uc.logger.InfoContext(ctx, "login succeeded", "email", email)
	}
	return result, nil
}

// RespondToChallenge completes the new-password challenge. On success
// it behaves exactly like Login regarding session persistence and
// cache invalidation.
type RespondToChallenge struct {
	exchanger domain.CredentialExchanger
	store     domain.TokenStore
	profiles  domain.ProfileSource
	logger    *slog.Logger
}

// NewRespondToChallenge creates a new RespondToChallenge usecase.
func NewRespondToChallenge(e domain.CredentialExchanger, s domain.TokenStore, p domain.ProfileSource, l *slog.Logger) *RespondToChallenge {
	return &RespondToChallenge{exchanger: e, store: s, profiles: p, logger: l}
}

// Execute consumes the challenge session exactly once. A stale
// challenge surfaces as domain.ErrChallengeExpired.
func (uc *RespondToChallenge) Execute(ctx context.Context, username, oldPassword, newPassword, session string) (*domain.Session, error) {
	sess, err := uc.exchanger.RespondToChallenge(ctx, username, oldPassword, newPassword, session)
	if err != nil {
		return nil, err
	}

	if err := uc.store.Save(sess.AccessToken); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	uc.profiles.Invalidate()
	uc.logger.InfoContext(ctx, "challenge completed", "username", username)
	return sess, nil
}

// Logout clears the persisted session and the cached profile.
type Logout struct {
	store    domain.TokenStore
	profiles domain.ProfileSource
	logger   *slog.Logger
}

// NewLogout creates a new Logout usecase.
func NewLogout(s domain.TokenStore, p domain.ProfileSource, l *slog.Logger) *Logout {
	return &Logout{store: s, profiles: p, logger: l}
}

// Execute tears the session down. Safe to call when already signed out.
func (uc *Logout) Execute() error {
	uc.profiles.Invalidate()
	if err := uc.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	uc.logger.Info("session cleared")
	return nil
}

// GetProfile returns the current user's profile through the cache.
type GetProfile struct {
	store    domain.TokenStore
	profiles domain.ProfileSource
}

// NewGetProfile creates a new GetProfile usecase.
func NewGetProfile(s domain.TokenStore, p domain.ProfileSource) *GetProfile {
	return &GetProfile{store: s, profiles: p}
}

// Execute resolves the current profile. bypassCache forces a round
// trip even when a fresh cache entry exists.
func (uc *GetProfile) Execute(ctx context.Context, bypassCache bool) (*domain.Profile, error) {
	token, ok := uc.store.Token()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return uc.profiles.Get(ctx, token, bypassCache)
}
