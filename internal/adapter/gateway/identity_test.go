package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placectl/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Login(t *testing.T) {
	t.Run("successful login returns session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/login", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@x.com", body["username"])
			assert.Equal(t, "Passw0rd!", body["password"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "token-1"})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		result, err := client.Login(context.Background(), "a@x.com", "Passw0rd!")

		require.NoError(t, err)
		require.NotNil(t, result.Session)
		assert.Nil(t, result.Challenge)
		assert.Equal(t, "token-1", result.Session.AccessToken)
	})

	t.Run("new password challenge is returned, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"challenge": "NEW_PASSWORD_REQUIRED",
				"session":   "S1",
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		result, err := client.Login(context.Background(), "a@x.com", "Passw0rd!")

		require.NoError(t, err)
		require.NotNil(t, result.Challenge)
		assert.Nil(t, result.Session)
		assert.Equal(t, domain.ChallengeNewPasswordRequired, result.Challenge.Kind)
		assert.Equal(t, "S1", result.Challenge.Session)
		assert.Equal(t, "a@x.com", result.Challenge.Username)
	})

	t.Run("401 maps to invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Incorrect username or password."})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.Login(context.Background(), "a@x.com", "wrong")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("5xx maps to status error with code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.Login(context.Background(), "a@x.com", "Passw0rd!")

		var statusErr *domain.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	})

	t.Run("exceeded deadline maps to network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		client.httpClient.Timeout = 50 * time.Millisecond

		_, err := client.Login(context.Background(), "a@x.com", "Passw0rd!")
		assert.ErrorIs(t, err, domain.ErrNetwork)
	})

	t.Run("throttle rejects a burst of attempts without a request", func(t *testing.T) {
		var hits int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		for i := 0; i < 5; i++ {
			_, _ = client.Login(context.Background(), "a@x.com", "wrong")
		}

		_, err := client.Login(context.Background(), "a@x.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
		assert.Equal(t, 5, hits)
	})
}

func TestClient_RespondToChallenge(t *testing.T) {
	t.Run("successful response returns session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/respond-to-new-password-challenge", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@x.com", body["username"])
			assert.Equal(t, "NewPass1!", body["newPassword"])
			assert.Equal(t, "S1", body["session"])

			json.NewEncoder(w).Encode(map[string]string{"accessToken": "token-2"})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		session, err := client.RespondToChallenge(context.Background(), "a@x.com", "Passw0rd!", "NewPass1!", "S1")

		require.NoError(t, err)
		assert.Equal(t, "token-2", session.AccessToken)
	})

	t.Run("expired session message maps to typed error", func(t *testing.T) {
		for _, message := range []string{
			"Invalid session. The session has expired. Please log in again.",
			"Invalid session provided",
			"Your session has expired",
		} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": message})
			}))

			client := NewClient(server.URL, testLogger())
			_, err := client.RespondToChallenge(context.Background(), "a@x.com", "old", "new", "stale")
			assert.ErrorIs(t, err, domain.ErrChallengeExpired, "message %q", message)

			server.Close()
		}
	})

	t.Run("401 without expiry message maps to invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Incorrect username or password."})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.RespondToChallenge(context.Background(), "a@x.com", "wrong", "new", "S1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestClient_FetchProfile(t *testing.T) {
	t.Run("successful fetch returns raw profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/profile", r.URL.Path)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]any{
				"user": map[string]string{
					"email":       "a@x.com",
					"name":        "Asha",
					"role":        "Placement Training Officer",
					"department":  "CSE",
					"year":        "2024",
					"joiningDate": "2021-07-01",
				},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		raw, err := client.FetchProfile(context.Background(), "token-1")

		require.NoError(t, err)
		assert.Equal(t, "a@x.com", raw.Email)
		assert.Equal(t, "Placement Training Officer", raw.Role)
		assert.Equal(t, "CSE", raw.Department)
	})

	t.Run("401 maps to unauthenticated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.FetchProfile(context.Background(), "stale")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("missing user object maps to malformed profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.FetchProfile(context.Background(), "token-1")
		assert.ErrorIs(t, err, domain.ErrMalformedProfile)
	})

	t.Run("non-JSON body maps to malformed profile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway error</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.FetchProfile(context.Background(), "token-1")
		assert.ErrorIs(t, err, domain.ErrMalformedProfile)
	})

	t.Run("5xx maps to status error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, testLogger())
		_, err := client.FetchProfile(context.Background(), "token-1")

		var statusErr *domain.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	})

	t.Run("unreachable endpoint maps to network error", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", testLogger())
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := client.FetchProfile(ctx, "token-1")
		assert.True(t, errors.Is(err, domain.ErrNetwork))
	})
}
