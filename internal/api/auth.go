package api

import (
	"context"

	"libris/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// AuthResult is the login/register/refresh response. The refresh credential
// itself never appears here; it travels as an httponly cookie.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if err := c.post(ctx, "/auth/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh exchanges the refresh cookie for a fresh bearer token. A single
// attempt; on failure the caller treats the session as unauthenticated.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var result AuthResult
	if err := c.post(ctx, "/auth/refresh", nil, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
