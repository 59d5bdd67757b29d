// Package identitystub is a development stand-in for the portal
// identity backend. It implements the REST surface the session core
// consumes (/login, /respond-to-new-password-challenge, /profile) over
// an in-memory account table.
package identitystub

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultTokenTTL = time.Hour
	challengeTTL    = 3 * time.Minute
)

// Account is one seeded identity. Role carries the raw string exactly
// as the production backend emits it, alias quirks included.
type Account struct {
	Email            string
	Password         string
	Name             string
	Role             string
	Department       string
	Year             string
	JoiningDate      string
	ForceNewPassword bool
}

// challengeState is one outstanding new-password challenge. Consumed
// exactly once; stale entries answer with the expiry message.
type challengeState struct {
	username  string
	expiresAt time.Time
}

// Server is the stub identity backend.
type Server struct {
	mu         sync.Mutex
	accounts   map[string]*Account
	challenges map[string]*challengeState
	secret     []byte
	tokenTTL   time.Duration
	logger     *slog.Logger

	now func() time.Time
}

// New creates a stub server over the given accounts.
func New(accounts []Account, secret string, logger *slog.Logger) *Server {
	s := &Server{
		accounts:   make(map[string]*Account, len(accounts)),
		challenges: make(map[string]*challengeState),
		secret:     []byte(secret),
		tokenTTL:   defaultTokenTTL,
		logger:     logger,
		now:        time.Now,
	}
	for i := range accounts {
		account := accounts[i]
		s.accounts[strings.ToLower(account.Email)] = &account
	}
	return s
}

// DefaultAccounts seeds one account per portal role, plus one that is
// forced through the new-password challenge on first login.
func DefaultAccounts() []Account {
	return []Account{
		{
			Email:       "student@portal.test",
			Password:    "Student1!",
			Name:        "Sana Iyer",
			Role:        "student",
			Department:  "CSE",
			Year:        "3",
			JoiningDate: "2023-08-01",
		},
		{
			Email:       "pto@portal.test",
			Password:    "Officer1!",
			Name:        "Ravi Menon",
			Role:        "Placement Training Officer",
			Department:  "Placement Cell",
			JoiningDate: "2019-06-15",
		},
		{
			Email:       "pts@portal.test",
			Password:    "Staff1!",
			Name:        "Leela Nair",
			Role:        "Placement Tracking Supervisor",
			Department:  "Placement Cell",
			JoiningDate: "2021-01-10",
		},
		{
			Email:            "admin@portal.test",
			Password:         "Admin1!",
			Name:             "Priya Raman",
			Role:             "company-admin",
			JoiningDate:      "2018-03-01",
			ForceNewPassword: true,
		},
	}
}

// Echo builds the HTTP surface with the stub's middleware stack.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(securityHeaders())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.InfoContext(c.Request().Context(), "request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))
	e.Use(middleware.Recover())

	loginRL := NewRateLimiter(30.0/60.0, 10) // 30 req/min
	e.POST("/login", s.handleLogin, loginRL.Middleware())
	e.POST("/respond-to-new-password-challenge", s.handleChallenge)
	e.GET("/profile", s.handleProfile)
	e.GET("/health", s.handleHealth)

	return e
}

type credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
	Session     string `json:"session"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var body credentials
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.ToLower(body.Username)]
	if !ok || account.Password != body.Password {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Incorrect username or password."})
	}

	if account.ForceNewPassword {
		session := randomSession()
		s.challenges[session] = &challengeState{
			username:  strings.ToLower(account.Email),
			expiresAt: s.now().Add(challengeTTL),
		}
		return c.JSON(http.StatusOK, echo.Map{
			"challenge": "NEW_PASSWORD_REQUIRED",
			"session":   session,
		})
	}

	token, err := s.issueToken(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": token})
}

func (s *Server) handleChallenge(c echo.Context) error {
	var body credentials
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[body.Session]
	if ok {
		// One shot, valid or not.
		delete(s.challenges, body.Session)
	}
	if !ok || s.now().After(challenge.expiresAt) || challenge.username != strings.ToLower(body.Username) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Invalid session. The session has expired. Please log in again.",
		})
	}

	account := s.accounts[challenge.username]
	if account == nil || account.Password != body.Password {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Incorrect username or password."})
	}

	account.Password = body.NewPassword
	account.ForceNewPassword = false

	token, err := s.issueToken(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": token})
}

func (s *Server) handleProfile(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	email, err := s.subjectOf(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	s.mu.Lock()
	account, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"email":       account.Email,
			"name":        account.Name,
			"role":        account.Role,
			"department":  account.Department,
			"year":        account.Year,
			"joiningDate": account.JoiningDate,
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// issueToken mints a short-lived HS256 access token for the account.
func (s *Server) issueToken(account *Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": strings.ToLower(account.Email),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// subjectOf verifies the token and returns its subject.
func (s *Server) subjectOf(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}

func randomSession() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}
