package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/config"
	"github.com/balkashynov/ems/internal/db"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/session"
)

// errNotLoggedIn is returned by commands that need a session
var errNotLoggedIn = errors.New("not logged in, run 'ems login' first")

// stack is everything a command needs, built from config and flags
type stack struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *db.Store
	client  *api.Client
	session *session.Store

	logCloser io.Closer
}

func openStack(ctx context.Context) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, logCloser, err := logging.Open(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := db.Open(cfg.DatabasePath())
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	client := api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithLogger(logger),
	)
	sess := session.NewStore(client, store.Credentials(cfg.APIURL), session.WithLogger(logger))
	client.SetTokenSource(sess)

	st := &stack{cfg: cfg, logger: logger, store: store, client: client, session: sess, logCloser: logCloser}
	if err := sess.Bootstrap(ctx); err != nil {
		// a stale or unreadable token just means logged out
		logger.WarnContext(ctx, "session not restored", "error", err)
	}
	return st, nil
}

func (s *stack) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("failed to close database", "error", err)
	}
	s.logCloser.Close()
}

// user returns the signed-in user, or errNotLoggedIn
func (s *stack) user() (*models.User, error) {
	st := s.session.State()
	if !st.Authenticated() {
		return nil, errNotLoggedIn
	}
	return st.User, nil
}

// require checks the signed-in user may open the screen at path; the CLI
// applies the same role rules as the TUI
func (s *stack) require(path string) (*models.User, error) {
	u, err := s.user()
	if err != nil {
		return nil, err
	}
	if !guard.Allowed(u, path) {
		return nil, fmt.Errorf("%s users cannot do this", u.Role)
	}
	return u, nil
}
