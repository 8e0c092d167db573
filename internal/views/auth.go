package views

import (
	"context"
	"strings"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/models"
)

// Authenticator is the part of the session store the public screens use
type Authenticator interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, req api.RegisterRequest) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	Remember(email string) error
}

// Login checks the form, signs in and, when remember is set, keeps the
// email for the next form. A failed sign-in never touches the saved email.
func Login(ctx context.Context, a Authenticator, email, password string, remember bool) error {
	email = strings.TrimSpace(email)
	if err := required("email", email); err != nil {
		return err
	}
	if err := required("password", password); err != nil {
		return err
	}
	if err := a.Login(ctx, email, password); err != nil {
		return err
	}
	if !remember {
		email = ""
	}
	// best effort; the session is already established
	_ = a.Remember(email)
	return nil
}

// Register checks the required fields and files a pending account
func Register(ctx context.Context, a Authenticator, req api.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	for _, f := range []struct{ name, value string }{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}
	return a.Register(ctx, req)
}

// ForgotPassword files a reset request for email
func ForgotPassword(ctx context.Context, a Authenticator, email string) error {
	email = strings.TrimSpace(email)
	if err := required("email", email); err != nil {
		return err
	}
	return a.ForgotPassword(ctx, email)
}
