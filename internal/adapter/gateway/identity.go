package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"placectl/internal/domain"

	"golang.org/x/time/rate"
)

// requestTimeout is the fixed deadline for every identity call. A call
// that exceeds it surfaces as domain.ErrNetwork, never a silent retry.
const requestTimeout = 10 * time.Second

// Client talks to the portal identity endpoint. It implements
// domain.IdentityGateway.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	loginLimiter *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates an identity client with a tuned HTTP transport.
// The login throttle keeps a wedged form from hammering the endpoint:
// a short burst of attempts is allowed, then one every two seconds.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		loginLimiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
		logger:       logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type challengeRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
	Session     string `json:"session"`
}

// authResponse covers both success and challenge shapes of the
// identity endpoint, plus the error message field.
type authResponse struct {
	AccessToken string `json:"accessToken"`
	Challenge   string `json:"challenge"`
	Session     string `json:"session"`
	Message     string `json:"message"`
}

// Login exchanges credentials for a session or an interactive challenge.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	if !c.loginLimiter.Allow() {
		return nil, domain.ErrTooManyAttempts
	}

	var body authResponse
	status, err := c.postJSON(ctx, "/login", loginRequest{Username: username, Password: password}, &body)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, domain.ErrInvalidCredentials
	case status < 200 || status >= 300:
		return nil, &domain.StatusError{Code: status}
	}

	if body.Challenge == domain.ChallengeNewPasswordRequired {
		c.logger.Info("login requires new password", "username", username)
		return &domain.LoginResult{
			Challenge: &domain.Challenge{
				Kind:     body.Challenge,
				Session:  body.Session,
				Username: username,
			},
		}, nil
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token")
	}
	return &domain.LoginResult{Session: &domain.Session{AccessToken: body.AccessToken}}, nil
}

// RespondToChallenge completes a NEW_PASSWORD_REQUIRED challenge. The
// opaque session is consumed exactly once; a stale one yields the
// typed domain.ErrChallengeExpired so the caller can offer "log in
// again" instead of a generic error.
func (c *Client) RespondToChallenge(ctx context.Context, username, oldPassword, newPassword, session string) (*domain.Session, error) {
	var body authResponse
	status, err := c.postJSON(ctx, "/respond-to-new-password-challenge", challengeRequest{
		Username:    username,
		Password:    oldPassword,
		NewPassword: newPassword,
		Session:     session,
	}, &body)
	if err != nil {
		return nil, err
	}

	if status >= 200 && status < 300 {
		if body.AccessToken == "" {
			return nil, fmt.Errorf("challenge response missing access token")
		}
		return &domain.Session{AccessToken: body.AccessToken}, nil
	}

	if expiredSessionMessage(body.Message) {
		return nil, domain.ErrChallengeExpired
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrInvalidCredentials
	}
	return nil, &domain.StatusError{Code: status}
}

// expiredSessionMessage detects the backend's challenge-expiry wording.
func expiredSessionMessage(message string) bool {
	return strings.Contains(message, "session has expired") ||
		strings.Contains(message, "Invalid session")
}

type profileResponse struct {
	User *struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		Role        string `json:"role"`
		Department  string `json:"department"`
		Year        string `json:"year"`
		JoiningDate string `json:"joiningDate"`
	} `json:"user"`
}

// FetchProfile retrieves the raw profile for an access token. A 401 is
// reported as domain.ErrUnauthenticated; the profile cache turns that
// into a global session teardown.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*domain.RawProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrUnauthenticated
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedProfile, err)
	}
	if body.User == nil || body.User.Email == "" {
		return nil, domain.ErrMalformedProfile
	}

	return &domain.RawProfile{
		Email:       body.User.Email,
		Name:        body.User.Name,
		Role:        body.User.Role,
		Department:  body.User.Department,
		Year:        body.User.Year,
		JoiningDate: body.User.JoiningDate,
	}, nil
}

// postJSON posts a JSON payload and decodes whatever JSON comes back,
// success or error shape. The caller switches on the returned status.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	// Error bodies carry a message field; decode best-effort.
	_ = json.NewDecoder(resp.Body).Decode(out)
	return resp.StatusCode, nil
}
