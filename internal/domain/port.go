package domain

import "context"

// CredentialExchanger exchanges credentials for a session or an
// interactive challenge at the identity endpoint.
type CredentialExchanger interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	RespondToChallenge(ctx context.Context, username, oldPassword, newPassword, session string) (*Session, error)
}

// ProfileFetcher retrieves the raw profile for an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*RawProfile, error)
}

// IdentityGateway is the full transport surface of the identity endpoint.
type IdentityGateway interface {
	CredentialExchanger
	ProfileFetcher
}

// TokenStore owns the persisted access token. Only the session
// usecases write it on success; a Clear may come from anywhere a 401
// is observed.
type TokenStore interface {
	Token() (string, bool)
	Save(token string) error
	Clear() error
}

// ProfileSource is the cached view of "access token -> profile".
type ProfileSource interface {
	Get(ctx context.Context, accessToken string, bypassCache bool) (*Profile, error)
	Invalidate()
}
