// Package session owns the authenticated-user record and the bearer
// credential. The two are set and cleared only together: the session is
// authenticated exactly when both are present. Every mutation of either
// is mirrored to the injected Persistence so a new process resumes
// where the last one left off.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sundayezeilo/shortener-cli/internal/api"
)

// User is the account identity held by an authenticated session.
type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	URLCount int    `json:"urlCount"`
}

// AuthAPI is the slice of the transport client the session store needs.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (api.AuthResult, error)
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
}

// Store is the session store.
//
// The mutex guards field access only and is never held across a network
// call, so overlapping register/login calls are not serialized: both
// run, and whichever completes last wins. The loading flag is advisory
// for callers that want to disable re-submission.
type Store struct {
	mu      sync.Mutex
	api     AuthAPI
	persist Persistence
	logger  *slog.Logger

	user          *User
	credential    string
	authenticated bool
	loading       bool
	err           error

	onInvalidate func()
}

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	API         AuthAPI
	Persistence Persistence
	Logger      *slog.Logger

	// OnInvalidate runs after a forced teardown, so the embedding UI can
	// route the user back to its login entry point.
	OnInvalidate func()
}

// NewStore creates the store and rehydrates it from the durable copy. A
// half-present durable pair (credential without user record, or the
// reverse) cannot satisfy the authenticated invariant and is erased.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		api:          cfg.API,
		persist:      cfg.Persistence,
		logger:       logger,
		onInvalidate: cfg.OnInvalidate,
	}

	credential, user, err := cfg.Persistence.Load()
	if err != nil {
		logger.Warn("failed to restore session, starting anonymous", "error", err)
		return s
	}
	if credential == "" || user == nil {
		if credential != "" || user != nil {
			logger.Warn("discarding half-present session state")
			if err := cfg.Persistence.Clear(); err != nil {
				logger.Warn("failed to clear session state", "error", err)
			}
		}
		return s
	}

	s.user = user
	s.credential = credential
	s.authenticated = true
	logger.Debug("session restored", "user_id", user.ID, "email", user.Email)
	return s
}

// Register creates a new account and signs the session in.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	s.begin()

	res, err := s.api.Register(ctx, name, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.commitAuthLocked(res)
	return nil
}

// Login verifies credentials and signs the session in.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.begin()

	res, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.commitAuthLocked(res)
	return nil
}

// Logout clears the session and its durable copy. It never contacts the
// service; there is no server-side session to invalidate.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Invalidate is the transport client's forced-teardown target: the same
// full clear as Logout, then the invalidation hook.
func (s *Store) Invalidate() {
	s.Logout()
	if s.onInvalidate != nil {
		s.onInvalidate()
	}
}

// UpdateOwnedCount records the user's new owned-link count and
// re-persists the durable copy. The links store is the only caller;
// correctness of the count is its responsibility.
func (s *Store) UpdateOwnedCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	s.user.URLCount = n
	s.saveLocked()
}

// ClearError clears only the transient error, leaving the
// authentication state alone.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Credential returns the bearer credential when the session is
// authenticated. Implements the transport client's credential source.
func (s *Store) Credential() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, s.authenticated
}

// User returns a copy of the authenticated user record.
func (s *Store) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user and credential are held.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Loading reports whether a register/login call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the transient error from the last failed operation.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = nil
}

// commitAuthLocked replaces user and credential together and mirrors
// both to durable storage.
func (s *Store) commitAuthLocked(res api.AuthResult) {
	user := User{
		ID:       res.User.ID,
		Name:     res.User.Name,
		Email:    res.User.Email,
		URLCount: res.User.URLCount,
	}
	s.user = &user
	s.credential = res.Token
	s.authenticated = true
	s.saveLocked()
	s.logger.Debug("session established", "user_id", user.ID, "email", user.Email)
}

func (s *Store) clearLocked() {
	s.user = nil
	s.credential = ""
	s.authenticated = false
	if err := s.persist.Clear(); err != nil {
		s.logger.Warn("failed to erase session state", "error", err)
	}
}

// saveLocked mirrors the in-memory session to durable storage. The
// mirror is best-effort: a write failure is logged, not surfaced, since
// the in-memory session stays authoritative for this process.
func (s *Store) saveLocked() {
	if err := s.persist.Save(s.credential, *s.user); err != nil {
		s.logger.Warn("failed to persist session state", "error", err)
	}
}
