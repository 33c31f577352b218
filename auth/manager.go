// Package auth drives the session lifecycle: provider sign-in, exchange of
// the provider identity for a backend token, verification and refresh of
// that token, and sign-out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/forumfront/api"
)

var (
	// ErrSignInFailed is returned when any step of sign-in fails. The
	// session is Anonymous afterwards.
	ErrSignInFailed = errors.New("sign-in failed")

	// ErrSessionExpired is returned when a token could not be refreshed.
	// The session is Anonymous afterwards.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned when the session holds no token.
	ErrNotAuthenticated = api.ErrNotAuthenticated
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forumfront",
	Subsystem: "auth",
	Name:      "transitions_total",
	Help:      "Session state transitions.",
}, []string{"from", "to"})

// Backend is the part of the backend API the lifecycle depends on.
type Backend interface {
	SignInWithProvider(ctx context.Context, in api.ProviderSignIn) (api.User, error)
	CreateSession(ctx context.Context, userID, email string) (string, error)
	VerifyToken(ctx context.Context, token string) (api.Verification, error)
}

// SignInFunc hands control to the identity provider and returns once it
// has produced an identity or failed.
type SignInFunc func(ctx context.Context) (ProviderIdentity, error)

// Logger is satisfied by echo's and gommon's loggers.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Manager performs lifecycle transitions on sessions. One Manager serves
// every session in the process.
type Manager struct {
	backend        Backend
	log            Logger
	refresh        singleflight.Group
	refreshTimeout time.Duration

	onJoin func() // called once a caller waits on the shared refresh
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger replaces the default gommon logger.
func WithLogger(l Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithRefreshTimeout bounds the shared token refresh. It runs detached
// from the request that started it.
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTimeout = d
		}
	}
}

// NewManager returns a Manager backed by b.
func NewManager(b Backend, opts ...ManagerOption) *Manager {
	m := &Manager{backend: b, log: log.New("auth"), refreshTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin moves s to Authenticating and returns the nonce to send as the
// provider's state parameter. Any previous token is dropped.
func (m *Manager) Begin(s *Session) string {
	nonce := uuid.NewString()
	m.record(s.begin(nonce), Authenticating)
	return nonce
}

// SignIn runs the provider flow and both backend exchanges. Nothing is
// kept unless all three succeed.
func (m *Manager) SignIn(ctx context.Context, s *Session, begin SignInFunc) error {
	if prev := s.move(Authenticating); prev != Authenticating {
		m.record(prev, Authenticating)
	}

	id, err := begin(ctx)
	if err != nil {
		return m.failSignIn(s, "provider", err)
	}
	if id.ProviderAccountID == "" {
		return m.failSignIn(s, "provider", errors.New("identity has no account id"))
	}

	user, err := m.backend.SignInWithProvider(ctx, api.ProviderSignIn{
		GoogleID: id.ProviderAccountID,
		Email:    id.Email,
		Name:     id.Name,
		Image:    id.Image,
	})
	if err != nil {
		return m.failSignIn(s, "exchange", err)
	}
	if user.Email == "" {
		user.Email = id.Email
	}

	token, err := m.backend.CreateSession(ctx, user.UserID, user.Email)
	if err != nil {
		return m.failSignIn(s, "create session", err)
	}
	if token == "" {
		return m.failSignIn(s, "create session", errors.New("empty token"))
	}

	normalize(&user)
	m.record(s.swap(Authenticated, token, &user), Authenticated)
	m.log.Infof("signed in user %s", user.UserID)
	return nil
}

func (m *Manager) failSignIn(s *Session, step string, err error) error {
	m.record(s.swap(Anonymous, "", nil), Anonymous)
	m.log.Warnf("sign-in failed at %s: %v", step, err)
	return fmt.Errorf("%w: %s: %w", ErrSignInFailed, step, err)
}

// Verify checks the session token with the backend. An invalid token, or
// a failed check, triggers exactly one refresh from the cached user's
// identity. Concurrent refreshes for one user share a single call.
func (m *Manager) Verify(ctx context.Context, s *Session) error {
	snap := s.Snapshot()
	if snap.Token == "" {
		return ErrNotAuthenticated
	}

	v, err := m.backend.VerifyToken(ctx, snap.Token)
	if err == nil && v.Valid {
		user := snap.User
		if v.User != nil {
			u := *v.User
			user = &u
		}
		if user != nil {
			normalize(user)
		}
		m.record(s.swap(Authenticated, snap.Token, user), Authenticated)
		return nil
	}
	if err != nil {
		m.log.Warnf("token check failed, refreshing: %v", err)
	}

	prev := s.move(TokenExpiring)
	m.record(prev, TokenExpiring)
	if snap.User == nil || snap.User.UserID == "" {
		return m.expire(s, errors.New("no cached user"))
	}
	user := *snap.User

	// Every session of the user shares this call; it outlives the request
	// that started it.
	shared := context.WithoutCancel(ctx)
	ch := m.refresh.DoChan(user.UserID, func() (any, error) {
		ctx, cancel := context.WithTimeout(shared, m.refreshTimeout)
		defer cancel()
		return m.backend.CreateSession(ctx, user.UserID, user.Email)
	})
	if m.onJoin != nil {
		m.onJoin()
	}

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		// Only this caller gave up; the session keeps its token for the
		// next request to retry.
		if s.moveFrom(TokenExpiring, prev) {
			m.record(TokenExpiring, prev)
		}
		return fmt.Errorf("token refresh abandoned: %w", ctx.Err())
	}
	if res.Err != nil {
		return m.expire(s, res.Err)
	}
	token, _ := res.Val.(string)
	if token == "" {
		return m.expire(s, errors.New("empty token"))
	}
	normalize(&user)
	m.record(s.swap(Authenticated, token, &user), Authenticated)
	m.log.Infof("refreshed token for user %s", user.UserID)
	return nil
}

func (m *Manager) expire(s *Session, err error) error {
	m.record(s.swap(Anonymous, "", nil), Anonymous)
	m.log.Warnf("token refresh failed: %v", err)
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

// SignOut clears the session unconditionally.
func (m *Manager) SignOut(s *Session) {
	prev := s.swap(Anonymous, "", nil)
	s.ConsumeNonce("")
	m.record(prev, Anonymous)
}

func (m *Manager) record(from, to State) {
	transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// normalize fills defaults the backend may omit.
func normalize(u *api.User) {
	if u.Posts == nil {
		u.Posts = []json.RawMessage{}
	}
}
