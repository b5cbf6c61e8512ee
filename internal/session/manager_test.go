package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"libris/internal/api"
	"libris/internal/config"
	"libris/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	loginResult  *api.AuthResult
	loginErr     error
	refreshToken string
	refreshErr   error
	logoutErr    error
	refreshCalls int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Refresh(ctx context.Context) (string, error) {
	f.refreshCalls++
	return f.refreshToken, f.refreshErr
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	return f.logoutErr
}

func signedToken(t *testing.T, userID string, role string, expiresAt time.Time) string {
	t.Helper()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestManager(auth *fakeAuth) *Manager {
	return NewManager(auth, config.AuthConfig{TokenLeewaySeconds: 30}, nil)
}

func TestLoginDecodesClaims(t *testing.T) {
	token := signedToken(t, "42", models.RoleAdmin, time.Now().Add(time.Hour))
	auth := &fakeAuth{loginResult: &api.AuthResult{
		AccessToken: token,
		User:        &models.User{ID: 42, Name: "Ada"},
	}}

	mgr := newTestManager(auth)
	user, err := mgr.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, token, mgr.Token())
	assert.Equal(t, int64(42), mgr.UserID())
	assert.Equal(t, models.RoleAdmin, mgr.Role())
	assert.True(t, mgr.IsAdmin())
	assert.True(t, mgr.Authenticated())
}

func TestBootstrapRestoresSession(t *testing.T) {
	auth := &fakeAuth{refreshToken: signedToken(t, "7", models.RoleMember, time.Now().Add(time.Hour))}
	mgr := newTestManager(auth)

	mgr.Bootstrap(context.Background())

	assert.Equal(t, 1, auth.refreshCalls, "bootstrap is a single refresh attempt")
	assert.True(t, mgr.Authenticated())
	assert.Equal(t, int64(7), mgr.UserID())
	assert.False(t, mgr.IsAdmin())
}

func TestBootstrapFailureLeavesUnauthenticated(t *testing.T) {
	auth := &fakeAuth{refreshErr: &api.Error{Status: 401}}
	mgr := newTestManager(auth)

	mgr.Bootstrap(context.Background())

	assert.Equal(t, 1, auth.refreshCalls, "no retry on refresh failure")
	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
	assert.Zero(t, mgr.UserID())
}

func TestBootstrapRejectsUndecodableToken(t *testing.T) {
	auth := &fakeAuth{refreshToken: "not-a-jwt"}
	mgr := newTestManager(auth)

	mgr.Bootstrap(context.Background())

	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
}

func TestLoginRejectsNonNumericSubject(t *testing.T) {
	auth := &fakeAuth{loginResult: &api.AuthResult{
		AccessToken: signedToken(t, "not-a-number", models.RoleMember, time.Now().Add(time.Hour)),
	}}
	mgr := newTestManager(auth)

	_, err := mgr.Login(context.Background(), "x@example.com", "pw")
	assert.Error(t, err)
	assert.False(t, mgr.Authenticated())
}

func TestAuthenticatedHonorsExpiryLeeway(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := &fakeAuth{refreshToken: signedToken(t, "7", models.RoleMember, base.Add(time.Minute))}

	mgr := newTestManager(auth)
	mgr.now = func() time.Time { return base }
	mgr.Bootstrap(context.Background())
	require.True(t, mgr.Authenticated())

	// 45s before expiry is still inside the 30s leeway window.
	mgr.now = func() time.Time { return base.Add(15 * time.Second) }
	assert.True(t, mgr.Authenticated())

	// 20s before expiry is not.
	mgr.now = func() time.Time { return base.Add(40 * time.Second) }
	assert.False(t, mgr.Authenticated())

	mgr.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.False(t, mgr.Authenticated())
}

func TestLogoutClearsEvenOnNetworkFailure(t *testing.T) {
	auth := &fakeAuth{
		refreshToken: signedToken(t, "7", models.RoleMember, time.Now().Add(time.Hour)),
		logoutErr:    errors.New("backend unreachable"),
	}
	mgr := newTestManager(auth)
	mgr.Bootstrap(context.Background())
	require.True(t, mgr.Authenticated())

	err := mgr.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, mgr.Authenticated(), "local session drops regardless of the server call")
	assert.Empty(t, mgr.Token())
}
