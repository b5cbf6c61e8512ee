package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"libris/internal/api"
	"libris/internal/config"
	"libris/internal/domain"
	"libris/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// tokenClaims is what the backend puts inside the bearer token. The subject
// is the user id.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager holds the process-wide authenticated session. It is an explicit
// value handed to whoever needs it; there is no package-level singleton.
// The bearer token is kept in memory only; the durable credential is the
// httponly refresh cookie living in the HTTP client's jar.
type Manager struct {
	auth   domain.AuthAPI
	leeway time.Duration
	cookie string
	logger zerolog.Logger

	mu        sync.RWMutex
	token     string
	userID    int64
	role      string
	expiresAt time.Time

	// now is swappable for tests
	now func() time.Time
}

func NewManager(auth domain.AuthAPI, cfg config.AuthConfig, logger *zerolog.Logger) *Manager {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "session").Logger()
	}

	return &Manager{
		auth:   auth,
		leeway: time.Duration(cfg.TokenLeewaySeconds) * time.Second,
		cookie: cfg.RefreshCookie,
		logger: base,
		now:    time.Now,
	}
}

// Bootstrap attempts one refresh-cookie exchange. A failure is not an error:
// the user is simply unauthenticated until they log in. No retry, no backoff.
func (m *Manager) Bootstrap(ctx context.Context) {
	token, err := m.auth.Refresh(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Str("cookie", m.cookie).Msg("refresh exchange failed, starting unauthenticated")
		m.clear()
		return
	}

	if err := m.setToken(token); err != nil {
		m.logger.Warn().Err(err).Msg("refresh returned an undecodable token")
		m.clear()
		return
	}
	m.logger.Info().Int64("user_id", m.UserID()).Str("role", m.Role()).Msg("session restored")
}

func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.setToken(result.AccessToken); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return result.User, nil
}

func (m *Manager) Register(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	result, err := m.auth.Register(ctx, registerRequest(name, email, phone, password))
	if err != nil {
		return nil, err
	}
	if err := m.setToken(result.AccessToken); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	return result.User, nil
}

// Logout invalidates the refresh cookie server-side and drops local state.
// The local session is cleared even when the network call fails.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.auth.Logout(ctx)
	m.clear()
	return err
}

// setToken decodes the claims without verifying the signature. That is fine
// here and only here: the token is used to label the session locally, never
// to authorize anything; the backend re-checks it on every request.
func (m *Manager) setToken(token string) error {
	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return fmt.Errorf("token subject %q is not a user id: %w", claims.Subject, err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	m.mu.Lock()
	m.token = token
	m.userID = userID
	m.role = claims.Role
	m.expiresAt = expiresAt
	m.mu.Unlock()
	return nil
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.userID = 0
	m.role = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

// Token implements api.TokenSource. Empty when unauthenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a usable token is present. The leeway
// shortens the window so a token about to expire mid-request does not count.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return false
	}
	if m.expiresAt.IsZero() {
		return true
	}
	return m.now().Add(m.leeway).Before(m.expiresAt)
}

func (m *Manager) UserID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

func (m *Manager) IsAdmin() bool {
	return m.Role() == models.RoleAdmin
}

func registerRequest(name, email, phone, password string) api.RegisterRequest {
	return api.RegisterRequest{Name: name, Email: email, Phone: phone, Password: password}
}
