package views

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/apitest"
	"github.com/balkashynov/ems/internal/models"
)

func TestLoginRemembersEmailOnlyOnSuccess(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("ana", "ana@example.com", "pw", models.RoleEmployee)
	ctx := context.Background()
	s := newSession(t, b)

	err := Login(ctx, s, "ana@example.com", "", true)
	assert.Equal(t, "Password is required", Describe("log in", err))
	assert.Empty(t, b.Requests())

	err = Login(ctx, s, "ana@example.com", "wrong", true)
	assert.Equal(t, "Incorrect email or password", Describe("log in", err))
	assert.Empty(t, s.RememberedEmail())

	require.NoError(t, Login(ctx, s, " ana@example.com ", "pw", true))
	assert.Equal(t, "ana@example.com", s.RememberedEmail())
	assert.True(t, s.State().Authenticated())

	s.Logout()
	require.NoError(t, Login(ctx, s, "ana@example.com", "pw", false))
	assert.Empty(t, s.RememberedEmail())
}

func TestRegisterRequiresFields(t *testing.T) {
	b := apitest.New(t)
	ctx := context.Background()
	s := newSession(t, b)

	_, err := Register(ctx, s, api.RegisterRequest{Username: "x", Password: "pw"})
	assert.Equal(t, "Email is required", Describe("register", err))
	assert.Empty(t, b.Requests())

	u, err := Register(ctx, s, api.RegisterRequest{Username: " kim ", Email: "kim@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "kim", u.Username)
	assert.False(t, u.IsActive)

	_, err = Register(ctx, s, api.RegisterRequest{Username: "kim2", Email: "kim@example.com", Password: "pw"})
	assert.Equal(t, "Email already registered", Describe("register", err))
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	b := apitest.New(t)
	ctx := context.Background()
	s := newSession(t, b)

	assert.ErrorIs(t, ForgotPassword(ctx, s, "  "), ErrRequired)
	assert.Empty(t, b.Requests())
	require.NoError(t, ForgotPassword(ctx, s, "someone@example.com"))
	assert.Equal(t, 1, b.Count(http.MethodPost, "/auth/forgot-password"))
}
