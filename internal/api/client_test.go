package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/models"
)

type recorded struct {
	Method   string
	Path     string
	RawQuery string
	Auth     string
	Body     string
	Type     string
}

// newTestServer answers every request with status/body and records it
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Auth:     r.Header.Get("Authorization"),
			Body:     string(b),
			Type:     r.Header.Get("Content-Type"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestBearerTokenOnEveryRequest(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, WithTokenSource(StaticToken("abc")))

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.MarkAllNotificationsRead(context.Background()))

	require.Len(t, *calls, 2)
	for _, call := range *calls {
		assert.Equal(t, "Bearer abc", call.Auth)
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL)

	_, err := c.ListTeams(context.Background())
	require.NoError(t, err)
	assert.Empty(t, (*calls)[0].Auth)
}

func TestSetTokenSourceAndWithToken(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)
	c.SetTokenSource(StaticToken("late"))

	_, err := c.Profile(context.Background())
	require.NoError(t, err)
	_, err = c.WithToken("fixed").Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer late", (*calls)[0].Auth)
	assert.Equal(t, "Bearer fixed", (*calls)[1].Auth)
}

func TestLoginUsesPasswordForm(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"access_token":"tok","token_type":"bearer"}`)
	c := New(srv.URL)

	tok, err := c.Login(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)

	call := (*calls)[0]
	assert.Equal(t, "/auth/login", call.Path)
	assert.Equal(t, "application/x-www-form-urlencoded", call.Type)
	assert.Equal(t, "password=s3cret&username=ana%40example.com", call.Body)
}

func TestListUsersFilterQuery(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[{"id":3,"username":"ana","role":"manager"}]`)
	c := New(srv.URL)

	users, err := c.ListUsers(context.Background(), UserFilter{Search: "ana", Role: models.RoleManager})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "/admin/users", (*calls)[0].Path)
	assert.Equal(t, "search=ana&role=manager", (*calls)[0].RawQuery)

	_, err = c.ListUsers(context.Background(), UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, (*calls)[1].RawQuery)

	_, err = c.ListUsers(context.Background(), UserFilter{Search: "a b&c"})
	require.NoError(t, err)
	assert.Equal(t, "search=a+b%26c", (*calls)[2].RawQuery)
}

func TestErrorDetailString(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"detail":"Email already registered"}`)
	c := New(srv.URL)

	_, err := c.Register(context.Background(), RegisterRequest{Email: "x@y.z"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Email already registered", apiErr.Detail)
	assert.True(t, apiErr.Client())
}

func TestErrorDetailValidationList(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnprocessableEntity,
		`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`)
	c := New(srv.URL)

	_, err := c.CreateUser(context.Background(), CreateUserRequest{})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "email: value is not a valid email address", apiErr.Detail)
}

func TestErrorWithoutBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, ``)
	c := New(srv.URL)

	_, err := c.GetTeam(context.Background(), 9)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Not Found")
}

func TestErrorPlainTextBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusConflict, "task is locked\n")
	c := New(srv.URL)

	_, err := c.GetTeam(context.Background(), 9)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "task is locked", apiErr.Detail)
}

func TestErrorIgnoresPageBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html><body><h1>404 Not Found</h1></body></html>"},
		{"multi-line", "upstream error\nretry later"},
		{"long", strings.Repeat("x", 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusNotFound, tt.body)
			c := New(srv.URL)

			_, err := c.GetTeam(context.Background(), 9)
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "Not Found", apiErr.Detail)
		})
	}
}

func TestTeamMembershipEndpoints(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.AddMembers(ctx, 4, 11, 12))
	require.NoError(t, c.RemoveMember(ctx, 4, 11))
	require.NoError(t, c.AssignManager(ctx, 4, 12))

	assert.Equal(t, http.MethodPut, (*calls)[0].Method)
	assert.Equal(t, "/teams/4/members", (*calls)[0].Path)
	assert.JSONEq(t, `[11,12]`, (*calls)[0].Body)

	assert.Equal(t, http.MethodDelete, (*calls)[1].Method)
	assert.Equal(t, "/teams/4/members/11", (*calls)[1].Path)

	assert.Equal(t, "/teams/4/manager", (*calls)[2].Path)
	assert.Equal(t, "manager_id=12", (*calls)[2].RawQuery)
}

func TestTaskUpdateIsPartial(t *testing.T) {
	title := "New title"
	b, err := json.Marshal(TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"New title"}`, string(b))

	team := 3
	b, err = json.Marshal(TaskUpdate{TeamID: &team, ClearAssignee: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"team_id":3,"user_id":null}`, string(b))

	assert.True(t, TaskUpdate{}.Empty())
	assert.False(t, TaskUpdate{ClearTeam: true}.Empty())
}

func TestSubtaskUpdateSendsBothFields(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)

	require.NoError(t, c.UpdateSubtask(context.Background(), 5, "Write tests", true))
	assert.Equal(t, "/subtasks/5", (*calls)[0].Path)
	assert.JSONEq(t, `{"title":"Write tests","is_completed":true}`, (*calls)[0].Body)
}

func TestResetPasswordReturnsTempPassword(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"temp_password":"Xy12-temp"}`)
	c := New(srv.URL)

	pw, err := c.ResetPassword(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Xy12-temp", pw)
	assert.Equal(t, "/admin/password-resets/8/reset", (*calls)[0].Path)
	assert.Equal(t, http.MethodPost, (*calls)[0].Method)
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, WithRateLimit(0.001, 1))

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListTasks(ctx)
	assert.Error(t, err)
	assert.Len(t, *calls, 1)
}
