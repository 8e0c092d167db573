// Package session holds the single source of truth for who is logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
)

// CredentialStore persists the bearer token and the remember-me email
type CredentialStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
	RememberedEmail() (string, error)
	RememberEmail(email string) error
}

// State is an immutable snapshot of the session
type State struct {
	User    *models.User
	Token   string
	Loading bool
}

// Authenticated is true once bootstrap finished with a user
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// Role returns the user's role, or "" when logged out
func (s State) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

type subscriber struct {
	id int
	fn func(State)
}

// Store owns the session. Create one per process and inject it everywhere.
type Store struct {
	client *api.Client
	creds  CredentialStore
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	user    *models.User
	token   string
	loading bool

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store's logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store in the loading state. Call Bootstrap next.
func NewStore(client *api.Client, creds CredentialStore, opts ...Option) *Store {
	s := &Store{
		client:  client,
		creds:   creds,
		now:     time.Now,
		loading: true,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrDiscard(s.logger).With("component", "session")
	return s
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Token: s.token, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Token implements api.TokenSource
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn for every state change. fn runs synchronously on
// the goroutine that changed the state, in subscription order.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) set(user *models.User, token string, loading bool) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.loading = loading
	s.mu.Unlock()

	st := s.State()
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(st)
	}
}

// Bootstrap restores a persisted token. Loading stays true until it returns.
// Expired tokens are dropped without a request; a 401 on the profile fetch
// drops the token too.
func (s *Store) Bootstrap(ctx context.Context) error {
	token, err := s.creds.LoadToken()
	if err != nil {
		s.set(nil, "", false)
		return fmt.Errorf("failed to load saved session: %w", err)
	}
	if token == "" {
		s.set(nil, "", false)
		return nil
	}

	claims, err := DecodeClaims(token)
	if err == nil && claims.Expired(s.now()) {
		s.logger.InfoContext(ctx, "saved token expired", "exp", claims.ExpiresAt.Time)
		s.forgetToken()
		s.set(nil, "", false)
		return nil
	}
	if err != nil {
		claims = nil // opaque token, let the server decide
	}

	user, err := s.profile(ctx, token, claims)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.forgetToken()
		}
		s.set(nil, "", false)
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.logger.InfoContext(ctx, "session restored", "email", user.Email, "role", user.Role)
	s.set(user, token, false)
	return nil
}

// Login exchanges credentials for a token and loads the profile. Errors are
// returned as-is; the caller decides what to show.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("login response carried no access token")
	}

	claims, err := DecodeClaims(resp.AccessToken)
	if err != nil {
		claims = nil
	}
	user, err := s.profile(ctx, resp.AccessToken, claims)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if err := s.creds.SaveToken(resp.AccessToken); err != nil {
		s.logger.WarnContext(ctx, "failed to persist token", "error", err)
	}
	s.logger.InfoContext(ctx, "logged in", "email", user.Email, "role", user.Role)
	s.set(user, resp.AccessToken, false)
	return nil
}

// Logout clears the session and the saved token. No server call is made.
func (s *Store) Logout() {
	s.forgetToken()
	s.logger.Info("logged out")
	s.set(nil, "", false)
}

// Register creates a pending account
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*models.User, error) {
	return s.client.Register(ctx, req)
}

// ForgotPassword files a password reset request for admins to handle
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	return s.client.ForgotPassword(ctx, email)
}

// RememberedEmail returns the email saved by Remember
func (s *Store) RememberedEmail() string {
	email, err := s.creds.RememberedEmail()
	if err != nil {
		s.logger.Warn("failed to read remembered email", "error", err)
		return ""
	}
	return email
}

// Remember saves email for the next login form; "" forgets it
func (s *Store) Remember(email string) error {
	return s.creds.RememberEmail(email)
}

// profile prefers GET /auth/me and falls back to token claims when the
// backend has no such route
func (s *Store) profile(ctx context.Context, token string, claims *Claims) (*models.User, error) {
	user, err := s.client.WithToken(token).Profile(ctx)
	if err == nil {
		return user, nil
	}
	status := api.StatusOf(err)
	if claims != nil && (status == http.StatusNotFound || status == http.StatusMethodNotAllowed) {
		s.logger.DebugContext(ctx, "profile endpoint unavailable, using token claims", "status", status)
		return claims.User(), nil
	}
	return nil, err
}

func (s *Store) forgetToken() {
	if err := s.creds.ClearToken(); err != nil {
		s.logger.Warn("failed to clear saved token", "error", err)
	}
}
