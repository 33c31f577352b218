package auth

import (
	"crypto/subtle"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/eringen/forumfront/api"
)

// ProviderIdentity is what the external provider returns after consent. It is
// passed to the backend once and never persisted.
type ProviderIdentity struct {
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
}

// Snapshot is a read-only copy of a session, also its persisted form.
type Snapshot struct {
	State State     `json:"state"`
	Token string    `json:"token,omitempty"`
	User  *api.User `json:"user,omitempty"`
	Nonce string    `json:"nonce,omitempty"`
}

// Authenticated reports whether the snapshot carries a usable token.
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated && s.Token != ""
}

// UserID returns the application user id or "".
func (s Snapshot) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.UserID
}

// Session holds one visitor's token and application user. The pair is
// only ever replaced together, so readers never see a token from one
// sign-in next to the user of another. The zero value is Anonymous.
type Session struct {
	mu    sync.RWMutex
	state State
	token string
	user  *api.User
	nonce string
}

// NewSession returns an Anonymous session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the application user.
func (s *Session) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.User{}, false
	}
	return cloneUser(s.user), true
}

// Snapshot returns a copy of the session that shares nothing with it.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{State: s.state, Token: s.token, Nonce: s.nonce}
	if s.user != nil {
		u := cloneUser(s.user)
		snap.User = &u
	}
	return snap
}

// Restore replaces the session with a persisted snapshot. A snapshot that
// claims to be authenticated without a token is restored as Anonymous.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.token, s.nonce = snap.State, snap.Token, snap.Nonce
	s.user = nil
	if snap.User != nil {
		u := cloneUser(snap.User)
		s.user = &u
	}
	if (s.state == Authenticated || s.state == TokenExpiring) && s.token == "" {
		s.state, s.user = Anonymous, nil
	}
}

// ConsumeNonce reports whether got matches the nonce issued by Begin. The
// nonce is cleared either way.
func (s *Session) ConsumeNonce(got string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := s.nonce
	s.nonce = ""
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// MarshalJSON encodes the session's snapshot.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON restores the session from an encoded snapshot.
func (s *Session) UnmarshalJSON(b []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	s.Restore(snap)
	return nil
}

// swap replaces state, token and user in one step and returns the
// previous state.
func (s *Session) swap(state State, token string, user *api.User) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state, s.token, s.user = state, token, user
	return prev
}

// move changes only the state.
func (s *Session) move(state State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = state
	return prev
}

// moveFrom changes the state to to only while it is still from.
func (s *Session) moveFrom(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) begin(nonce string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state, s.token, s.user, s.nonce = Authenticating, "", nil, nonce
	return prev
}

func cloneUser(u *api.User) api.User {
	c := *u
	if u.Posts != nil {
		c.Posts = append([]json.RawMessage(nil), u.Posts...)
	}
	return c
}
