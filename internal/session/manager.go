// Package session holds the process-wide authentication state: whether a
// user is signed in, their token and profile, and the selected avatar.
// State is mirrored to durable local storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/storage"
)

// Storage keys.
const (
	KeyToken  = "token"
	KeyUser   = "user"
	KeyAvatar = "avatar_index"
)

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEmptyToken is returned when login is attempted without a token.
	ErrEmptyToken = errors.New("token is required")

	// ErrInvalidAvatar is returned for a negative avatar index.
	ErrInvalidAvatar = errors.New("avatar index must not be negative")
)

// Store is the durable key/value storage behind the session.
type Store interface {
	// Lookup decodes key into target. found is false when key is absent.
	Lookup(ctx context.Context, key string, target interface{}) (found bool, err error)
	Save(ctx context.Context, values map[string]interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// Options configures a Manager.
type Options struct {
	// Encryption seals the token at rest when set.
	Encryption *storage.EncryptionConfig

	// Dispatcher receives session:changed events when set.
	Dispatcher events.Dispatcher
}

// State is a point-in-time copy of the session.
type State struct {
	Authenticated bool          `json:"authenticated"`
	User          *backend.User `json:"user,omitempty"`
	Avatar        int           `json:"avatar"`
}

// Manager owns the session. Authenticated is true exactly when a token is
// held. Persistence failures are logged and returned, but never prevent
// the in-memory transition.
type Manager struct {
	store      Store
	encryption *storage.EncryptionConfig
	dispatcher events.Dispatcher

	mu     sync.RWMutex
	token  string
	user   *backend.User
	avatar int
}

// NewManager creates an unauthenticated manager. Call Initialize to load
// persisted state.
func NewManager(store Store, opts Options) *Manager {
	return &Manager{
		store:      store,
		encryption: opts.Encryption,
		dispatcher: opts.Dispatcher,
	}
}

// Initialize loads the persisted token, profile and avatar. An unreadable
// profile or avatar is treated as absent. The returned error reports a
// failure to read the token; the session then starts signed out.
func (m *Manager) Initialize(ctx context.Context) error {
	var (
		stored string
		user   backend.User
		avatar int
	)

	found, err := m.store.Lookup(ctx, KeyToken, &stored)
	if err != nil {
		log.Printf("[Session] Failed to read persisted token: %v", err)
		found = false
	}
	token := ""
	if found {
		token = m.openToken(stored)
	}

	var profile *backend.User
	if ok, uerr := m.store.Lookup(ctx, KeyUser, &user); uerr != nil {
		log.Printf("[Session] Ignoring unreadable persisted profile: %v", uerr)
	} else if ok {
		profile = &user
	}

	if _, aerr := m.store.Lookup(ctx, KeyAvatar, &avatar); aerr != nil || avatar < 0 {
		avatar = 0
	}

	m.mu.Lock()
	m.token = token
	m.user = profile
	m.avatar = avatar
	m.mu.Unlock()

	if token != "" {
		log.Printf("[Session] Restored session for %s", displayName(profile))
	}

	if err != nil {
		return fmt.Errorf("failed to read persisted token: %w", err)
	}
	return nil
}

func (m *Manager) openToken(stored string) string {
	if !storage.IsSealed(stored) {
		return stored
	}
	if m.encryption == nil {
		log.Printf("[Session] Persisted token is encrypted but no passphrase is configured")
		return ""
	}
	token, err := storage.Unseal(stored, m.encryption)
	if err != nil {
		log.Printf("[Session] Failed to decrypt persisted token: %v", err)
		return ""
	}
	return token
}

func (m *Manager) sealToken(token string) (string, error) {
	if m.encryption == nil {
		return token, nil
	}
	return storage.Seal(token, m.encryption)
}

// Login marks the session authenticated with token and user and persists
// both. The session is authenticated even if the returned error is non-nil.
func (m *Manager) Login(ctx context.Context, token string, user backend.User) error {
	if token == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	m.token = token
	u := user
	m.user = &u
	m.mu.Unlock()

	m.notify(ctx, true, user.Name, "login")

	sealed, err := m.sealToken(token)
	if err != nil {
		log.Printf("[Session] Failed to encrypt token: %v", err)
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := m.store.Save(ctx, map[string]interface{}{KeyToken: sealed, KeyUser: user}); err != nil {
		log.Printf("[Session] Failed to persist session: %v", err)
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout clears the session and the persisted token and profile. The
// remote backend is not contacted.
func (m *Manager) Logout(ctx context.Context) error {
	return m.clear(ctx, "logout")
}

// Expire clears the session after the backend rejected the token.
func (m *Manager) Expire(ctx context.Context) error {
	return m.clear(ctx, "expired")
}

func (m *Manager) clear(ctx context.Context, reason string) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.notify(ctx, false, "", reason)

	if err := m.store.Delete(ctx, KeyToken, KeyUser); err != nil {
		log.Printf("[Session] Failed to clear persisted session: %v", err)
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

// SetUser replaces the cached profile of the signed-in user.
func (m *Manager) SetUser(ctx context.Context, user backend.User) error {
	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	u := user
	m.user = &u
	m.mu.Unlock()

	if err := m.store.Save(ctx, map[string]interface{}{KeyUser: user}); err != nil {
		log.Printf("[Session] Failed to persist profile: %v", err)
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// SetAvatar selects an avatar index.
func (m *Manager) SetAvatar(ctx context.Context, index int) error {
	if index < 0 {
		return ErrInvalidAvatar
	}

	m.mu.Lock()
	m.avatar = index
	m.mu.Unlock()

	if err := m.store.Save(ctx, map[string]interface{}{KeyAvatar: index}); err != nil {
		log.Printf("[Session] Failed to persist avatar: %v", err)
		return fmt.Errorf("failed to persist avatar: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// Token returns the current token. It satisfies backend.TokenSource.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// CurrentUser returns a copy of the profile, or nil.
func (m *Manager) CurrentUser() *backend.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Avatar returns the selected avatar index.
func (m *Manager) Avatar() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.avatar
}

// Snapshot returns a copy of the whole session.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := State{Authenticated: m.token != "", Avatar: m.avatar}
	if m.user != nil {
		u := *m.user
		state.User = &u
	}
	return state
}

func (m *Manager) notify(ctx context.Context, authenticated bool, name, reason string) {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Dispatch(events.NewEvent(ctx, events.SessionChanged, events.SessionChangedEvent{
		Authenticated: authenticated,
		UserName:      name,
		Reason:        reason,
	}))
}

func displayName(u *backend.User) string {
	if u == nil || u.Name == "" {
		return "unknown user"
	}
	return u.Name
}

var (
	_ Store               = (*storage.Service)(nil)
	_ backend.TokenSource = (*Manager)(nil)
)
