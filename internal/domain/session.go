package domain

// ChallengeNewPasswordRequired is the only interactive challenge the
// identity endpoint issues: the account must set a new password before
// a session is granted.
const ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"

// Session is the authenticated state: a bearer access token. It is
// owned exclusively by the token store and cleared on logout or on any
// observed 401.
type Session struct {
	AccessToken string
}

// Challenge is an interactive step demanded by the identity endpoint
// before a session is issued. The opaque Session value is consumed
// exactly once by the challenge response.
type Challenge struct {
	Kind     string
	Session  string
	Username string
}

// LoginResult carries the outcome of a credential exchange: either an
// authenticated Session or a Challenge that must be completed first.
// Exactly one of the two fields is set.
type LoginResult struct {
	Session   *Session
	Challenge *Challenge
}

// Profile is the resolved identity record for the current session.
// It is immutable once constructed; a refetch supersedes it with a new
// value rather than mutating it.
type Profile struct {
	Email       string
	Name        string
	Role        Role
	Department  string
	Year        string
	JoiningDate string
}

// RawProfile is the wire-shaped profile as the backend returns it,
// before the role string is normalized.
type RawProfile struct {
	Email       string
	Name        string
	Role        string
	Department  string
	Year        string
	JoiningDate string
}
