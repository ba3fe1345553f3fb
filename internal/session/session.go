// Package session tracks the active user. The only persisted state is a
// marker holding the username, stored under its own key next to the snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidProfile wraps validation failures of a registration.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrNoSession is returned when no user is logged in.
	ErrNoSession = errors.New("no active session")
)

const minPasswordLength = 6

// Manager handles registration, login and the remembered session marker.
type Manager struct {
	kv       repository.KV
	users    cache.UserDirectory
	key      string
	validate *validator.Validate
	cost     int

	mu      sync.RWMutex
	current string
}

func NewManager(kv repository.KV, users cache.UserDirectory, markerKey string) (*Manager, error) {
	if kv == nil || users == nil {
		return nil, errors.New("session: kv and user directory are required")
	}
	if markerKey == "" {
		return nil, repository.ErrEmptyKey
	}
	return &Manager{
		kv:       kv,
		users:    users,
		key:      markerKey,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
	}, nil
}

// Register creates a profile and logs it in. The password is stored as a
// bcrypt hash; the returned profile never carries it.
func (m *Manager) Register(ctx context.Context, profile repository.UserProfile, password string) (repository.UserProfile, error) {
	if err := m.validate.Struct(profile); err != nil {
		return repository.UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := m.validate.Var(password, fmt.Sprintf("required,min=%d", minPasswordLength)); err != nil {
		return repository.UserProfile{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidProfile, minPasswordLength)
	}
	if _, exists := m.users.User(profile.Username); exists {
		return repository.UserProfile{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return repository.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}
	profile.PasswordHash = string(hash)

	// a concurrent registration may have claimed the name while hashing
	created, ok, _ := m.users.CreateUserIfAbsent(profile)
	if !ok {
		return repository.UserProfile{}, ErrUsernameTaken
	}
	m.remember(ctx, created.Username)
	logger.WithComponent("session").Infof("registered user %s", created.Username)
	return public(created), nil
}

// Login checks the credentials against the cached profile.
func (m *Manager) Login(ctx context.Context, username, password string) (repository.UserProfile, error) {
	u, ok := m.users.User(username)
	if !ok || u.PasswordHash == "" {
		return repository.UserProfile{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return repository.UserProfile{}, ErrInvalidCredentials
	}
	m.remember(ctx, u.Username)
	return public(u), nil
}

// Logout forgets the active user and removes the marker.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = ""
	m.mu.Unlock()
	if err := m.kv.Delete(ctx, m.key); err != nil {
		logger.WithComponent("session").Warnf("cannot remove session marker: %v", err)
	}
	return nil
}

// Resume restores the remembered user if the marker names a loaded profile.
func (m *Manager) Resume(ctx context.Context) (repository.UserProfile, bool) {
	raw, err := m.kv.Get(ctx, m.key)
	if err != nil {
		logger.WithComponent("session").Warnf("cannot read session marker: %v", err)
		return repository.UserProfile{}, false
	}
	if len(raw) == 0 {
		return repository.UserProfile{}, false
	}
	u, ok := m.users.User(string(raw))
	if !ok {
		logger.WithComponent("session").Debugf("remembered user %q is not loaded", string(raw))
		return repository.UserProfile{}, false
	}

	m.mu.Lock()
	m.current = u.Username
	m.mu.Unlock()
	return public(u), true
}

// Current returns the logged-in profile.
func (m *Manager) Current() (repository.UserProfile, error) {
	m.mu.RLock()
	name := m.current
	m.mu.RUnlock()
	if name == "" {
		return repository.UserProfile{}, ErrNoSession
	}
	u, ok := m.users.User(name)
	if !ok {
		return repository.UserProfile{}, ErrNoSession
	}
	return public(u), nil
}

func (m *Manager) remember(ctx context.Context, username string) {
	m.mu.Lock()
	m.current = username
	m.mu.Unlock()
	if err := m.kv.Set(ctx, m.key, []byte(username)); err != nil {
		logger.WithComponent("session").Warnf("cannot write session marker: %v", err)
	}
}

func public(u repository.UserProfile) repository.UserProfile {
	u.PasswordHash = ""
	return u
}
