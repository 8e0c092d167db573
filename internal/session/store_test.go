package session

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/apitest"
	"github.com/balkashynov/ems/internal/db"
	"github.com/balkashynov/ems/internal/models"
)

func newCreds(t *testing.T) *db.Credentials {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "ems.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.Credentials("test")
}

func newStore(t *testing.T, backend *apitest.Backend, creds CredentialStore) *Store {
	t.Helper()
	client := api.New(backend.URL())
	s := NewStore(client, creds)
	client.SetTokenSource(s)
	return s
}

func TestNewStoreStartsLoading(t *testing.T) {
	s := NewStore(api.New("http://127.0.0.1:1"), newCreds(t))
	st := s.State()
	assert.True(t, st.Loading)
	assert.False(t, st.Authenticated())
	assert.Empty(t, st.Role())
}

func TestBootstrapWithoutToken(t *testing.T) {
	backend := apitest.New(t)
	s := newStore(t, backend, newCreds(t))

	require.NoError(t, s.Bootstrap(context.Background()))
	st := s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.User)
	assert.Empty(t, backend.Requests())
}

func TestBootstrapRestoresSavedToken(t *testing.T) {
	backend := apitest.New(t)
	ana := backend.AddUser("ana", "ana@example.com", "pw", models.RoleManager)
	creds := newCreds(t)
	require.NoError(t, creds.SaveToken(backend.Token(ana.ID)))
	s := newStore(t, backend, creds)

	require.NoError(t, s.Bootstrap(context.Background()))
	st := s.State()
	require.True(t, st.Authenticated())
	assert.Equal(t, "ana@example.com", st.User.Email)
	assert.Equal(t, models.RoleManager, st.Role())
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/auth/me"))
}

func TestBootstrapDropsExpiredTokenWithoutRequest(t *testing.T) {
	backend := apitest.New(t)
	ana := backend.AddUser("ana", "ana@example.com", "pw", models.RoleEmployee)
	creds := newCreds(t)
	require.NoError(t, creds.SaveToken(backend.ExpiredToken(ana.ID)))
	s := newStore(t, backend, creds)

	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Nil(t, s.State().User)
	assert.Empty(t, backend.Requests())

	saved, err := creds.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestBootstrapUnauthorizedClearsToken(t *testing.T) {
	backend := apitest.New(t)
	creds := newCreds(t)
	// Signed with a key the backend does not know
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ghost@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-key"))
	require.NoError(t, err)
	require.NoError(t, creds.SaveToken(forged))
	s := newStore(t, backend, creds)

	err = s.Bootstrap(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, s.State().Loading)
	assert.Nil(t, s.State().User)

	saved, err := creds.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLoginNotifiesSubscribersSynchronously(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	creds := newCreds(t)
	s := newStore(t, backend, creds)
	require.NoError(t, s.Bootstrap(context.Background()))

	var seen []State
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st) })

	require.NoError(t, s.Login(context.Background(), "root@example.com", "pw"))
	require.Len(t, seen, 1)
	assert.Equal(t, models.RoleAdmin, seen[0].Role())
	assert.NotEmpty(t, seen[0].Token)
	assert.Equal(t, seen[0].Token, s.Token())

	saved, err := creds.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, s.Token(), saved)

	unsubscribe()
	s.Logout()
	assert.Len(t, seen, 1)
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser("ana", "ana@example.com", "pw", models.RoleEmployee)
	s := newStore(t, backend, newCreds(t))
	require.NoError(t, s.Bootstrap(context.Background()))

	calls := 0
	s.Subscribe(func(State) { calls++ })

	err := s.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.Zero(t, calls)
	assert.Nil(t, s.State().User)
}

func TestLoginFallsBackToClaimsWithoutProfileRoute(t *testing.T) {
	backend := apitest.New(t)
	backend.DisableProfileRoute()
	backend.AddUser("mia", "mia@example.com", "pw", models.RoleManager)
	s := newStore(t, backend, newCreds(t))

	require.NoError(t, s.Login(context.Background(), "mia@example.com", "pw"))
	st := s.State()
	require.True(t, st.Authenticated())
	assert.Equal(t, "mia@example.com", st.User.Email)
	assert.Equal(t, models.RoleManager, st.User.Role)
}

func TestLogoutClearsSavedToken(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser("ana", "ana@example.com", "pw", models.RoleEmployee)
	creds := newCreds(t)
	s := newStore(t, backend, creds)
	require.NoError(t, s.Login(context.Background(), "ana@example.com", "pw"))
	backend.ResetRequests()

	s.Logout()
	assert.Nil(t, s.State().User)
	assert.Empty(t, s.Token())
	assert.Empty(t, backend.Requests())

	saved, err := creds.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRememberedEmail(t *testing.T) {
	s := NewStore(api.New("http://127.0.0.1:1"), newCreds(t))
	assert.Empty(t, s.RememberedEmail())
	require.NoError(t, s.Remember("ana@example.com"))
	assert.Equal(t, "ana@example.com", s.RememberedEmail())
	require.NoError(t, s.Remember(""))
	assert.Empty(t, s.RememberedEmail())
}

func TestClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ana@example.com",
		"role": "Manager",
		"exp":  exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	assert.False(t, claims.Expired(exp.Add(-time.Second)))
	assert.True(t, claims.Expired(exp))
	assert.Equal(t, models.RoleManager, claims.User().Role)
	assert.Equal(t, "ana@example.com", claims.User().Email)

	_, err = DecodeClaims("not-a-jwt")
	assert.Error(t, err)

	noRole := &Claims{}
	assert.Equal(t, models.RoleEmployee, noRole.User().Role)
	assert.False(t, noRole.Expired(time.Now()))
}
