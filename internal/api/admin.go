package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/balkashynov/ems/internal/models"
)

// UserFilter narrows GET /admin/users server-side
type UserFilter struct {
	Search string
	Role   models.Role
}

// Query encodes the filter as "search=..&role=..", skipping empty values.
// Order is fixed (url.Values would sort keys).
func (f UserFilter) Query() string {
	var parts []string
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, "search="+url.QueryEscape(s))
	}
	if f.Role != "" {
		parts = append(parts, "role="+url.QueryEscape(string(f.Role)))
	}
	return strings.Join(parts, "&")
}

// CreateUserRequest is the admin user-creation payload
type CreateUserRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name,omitempty"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type resetResponse struct {
	TempPassword string `json:"temp_password"`
}

// ListUsers calls GET /admin/users with the filter as query parameters
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	path := "/admin/users"
	if q := filter.Query(); q != "" {
		path += "?" + q
	}
	var out []models.User
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateUser calls POST /admin/users
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/admin/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingUsers calls GET /admin/pending-users
func (c *Client) PendingUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, http.MethodGet, "/admin/pending-users", nil, &out)
	return out, err
}

// ApproveUser calls PUT /admin/approve-user/{id}
func (c *Client) ApproveUser(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodPut, "/admin/approve-user/"+escape(userID), nil, nil)
}

// PasswordResets calls GET /admin/password-resets
func (c *Client) PasswordResets(ctx context.Context) ([]models.PasswordResetRequest, error) {
	var out []models.PasswordResetRequest
	err := c.do(ctx, http.MethodGet, "/admin/password-resets", nil, &out)
	return out, err
}

// ResetPassword calls POST /admin/password-resets/{id}/reset and returns the
// temporary password. The server never returns it again.
func (c *Client) ResetPassword(ctx context.Context, requestID int) (string, error) {
	var out resetResponse
	if err := c.do(ctx, http.MethodPost, "/admin/password-resets/"+escape(requestID)+"/reset", nil, &out); err != nil {
		return "", err
	}
	return out.TempPassword, nil
}
