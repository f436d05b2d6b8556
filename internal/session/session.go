package session

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidCredentials is returned when the supplied username or
	// password does not match the configured user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured is returned when no password has been configured,
	// which disables sign-in entirely.
	ErrNotConfigured = errors.New("authentication not configured")
)

// Config holds the single configured user and the session lifetime.
type Config struct {
	Username string
	Password string
	TTL      time.Duration
}

// Manager issues and validates opaque bearer tokens for the single
// configured user. Tokens live in memory and expire after the
// configured TTL.
type Manager struct {
	mu       sync.Mutex
	username string
	password string
	ttl      time.Duration
	tokens   map[string]time.Time
	now      func() time.Time
}

func NewManager(cfg Config) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		username: cfg.Username,
		password: cfg.Password,
		ttl:      ttl,
		tokens:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// SignIn checks the credentials against the configured user and returns
// a new opaque session token on success.
func (m *Manager) SignIn(username, password string) (string, error) {
	if m.password == "" {
		return "", ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		log.Warn().Str("username", username).Msg("Sign-in rejected")
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()

	m.mu.Lock()
	m.tokens[token] = m.now().Add(m.ttl)
	m.mu.Unlock()

	log.Info().Str("username", username).Msg("Sign-in accepted")
	return token, nil
}

// Validate reports whether the token identifies a live session. Expired
// tokens are removed as they are seen.
func (m *Manager) Validate(token string) bool {
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false
	}
	if m.now().After(expiry) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// SignOut invalidates the token. Unknown tokens are a no-op.
func (m *Manager) SignOut(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}

// Require wraps a handler and rejects requests without a live session
// token with a 401 JSON body. The token is read from the Authorization
// header as a bearer credential.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Validate(bearerToken(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
