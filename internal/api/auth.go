package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/balkashynov/ems/internal/models"
)

// TokenResponse is the credential exchange result
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the self-registration payload
type RegisterRequest struct {
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DOB          string `json:"dob,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

// Login exchanges credentials for a bearer token (POST /auth/login, OAuth2 password form)
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out TokenResponse
	if err := c.doForm(ctx, "/auth/login", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile calls GET /auth/me
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls POST /auth/register. New accounts wait for admin approval.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword calls POST /auth/forgot-password
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// DeleteUser calls DELETE /auth/{id}
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodDelete, "/auth/"+escape(userID), nil, nil)
}
