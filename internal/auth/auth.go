// Package auth manages user accounts and the persisted login session.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/kvstore"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

// Storage keys of the account documents.
const (
	UsersKey       = "quizUsers.v1"
	CurrentUserKey = "quizCurrentUser.v1"
)

// DefaultMinPasswordLength is the shortest password accepted by Signup.
const DefaultMinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

var (
	// ErrInvalidCredentials is returned for any failed login. It does not
	// reveal whether the email is registered.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidInput is returned when a required field is empty.
	ErrInvalidInput = errors.New("name, email and password are required")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password is too short")
	// ErrPasswordTooLong is returned when the password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password is too long")
)

// Manager handles signup, login and logout. It keeps the signed in user in
// memory and mirrors it to the session document.
type Manager struct {
	mu sync.RWMutex

	users   *kvstore.Document[[]models.User]
	session *kvstore.Document[models.User]
	current *models.User

	now               func() time.Time
	bcryptCost        int
	minPasswordLength int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for user ids and creation dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithBcryptCost sets the cost of new password hashes.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) {
		m.bcryptCost = cost
	}
}

// WithMinPasswordLength sets the shortest password accepted by Signup.
func WithMinPasswordLength(n int) Option {
	return func(m *Manager) {
		m.minPasswordLength = n
	}
}

// New creates a Manager and restores the persisted session. A malformed
// session document is treated as signed out.
func New(ctx context.Context, backend kvstore.Backend, opts ...Option) (*Manager, error) {
	m := &Manager{
		users:             kvstore.NewDocument(backend, UsersKey, func() []models.User { return []models.User{} }),
		session:           kvstore.NewDocument[models.User](backend, CurrentUserKey, nil),
		now:               time.Now,
		bcryptCost:        bcrypt.DefaultCost,
		minPasswordLength: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(m)
	}

	user, found, err := m.session.Load(ctx)
	if err != nil {
		return nil, err
	}
	if found && user.Email != "" {
		m.current = &user
		log.Debug("Restored session", "email", user.Email)
	}
	return m, nil
}

// Signup registers a new user and signs them in.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, ErrInvalidInput
	}
	if len(password) < m.minPasswordLength {
		return models.User{}, fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, m.minPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return models.User{}, fmt.Errorf("%w: at most %d bytes allowed", ErrPasswordTooLong, MaxPasswordBytes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	if _, _, ok := findUser(users, email); ok {
		return models.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := m.now()
	user := models.User{
		ID: models.NextTimeID(now, lo.Map(users, func(u models.User, _ int) int64 {
			return u.ID
		})),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now.UTC(),
	}
	if err := m.users.Save(ctx, append(users, user)); err != nil {
		return models.User{}, err
	}

	log.Info("User signed up", "email", user.Email)

	if err := m.setSession(ctx, user); err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

// Login signs in the user registered under email. The email is matched
// case-insensitively.
func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}

	user, idx, ok := findUser(users, normalizeEmail(email))
	if !ok || password == "" {
		log.Debug("Login failed", "email", email)
		return models.User{}, ErrInvalidCredentials
	}

	switch {
	case user.PasswordHash != "":
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			log.Debug("Login failed", "email", email)
			return models.User{}, ErrInvalidCredentials
		}
	case subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) == 1:
		m.upgradeLegacyPassword(ctx, users, idx, password)
	default:
		log.Debug("Login failed", "email", email)
		return models.User{}, ErrInvalidCredentials
	}

	if err := m.setSession(ctx, user); err != nil {
		return models.User{}, err
	}

	log.Info("User logged in", "email", user.Email)
	return user.Public(), nil
}

// Logout ends the session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.session.Remove(ctx); err != nil {
		return err
	}
	if m.current != nil {
		log.Info("User logged out", "email", m.current.Email)
	}
	m.current = nil
	return nil
}

// CurrentUser returns the signed in user.
func (m *Manager) CurrentUser() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return models.User{}, false
	}
	return *m.current, true
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	_, ok := m.CurrentUser()
	return ok
}

func (m *Manager) setSession(ctx context.Context, user models.User) error {
	public := user.Public()
	if err := m.session.Save(ctx, public); err != nil {
		return err
	}
	m.current = &public
	return nil
}

// upgradeLegacyPassword replaces the cleartext password of users[idx] with a
// hash. Failing to do so does not fail the login.
func (m *Manager) upgradeLegacyPassword(ctx context.Context, users []models.User, idx int, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		log.Warn("Failed to hash legacy password", "email", users[idx].Email, "error", err)
		return
	}
	users[idx].PasswordHash = string(hash)
	users[idx].Password = ""
	if err := m.users.Save(ctx, users); err != nil {
		log.Warn("Failed to upgrade legacy password", "email", users[idx].Email, "error", err)
		return
	}
	log.Info("Upgraded legacy password to hash", "email", users[idx].Email)
}

// loadUsers returns the stored users, skipping records without an email or credentials.
func (m *Manager) loadUsers(ctx context.Context) ([]models.User, error) {
	users, _, err := m.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u models.User, _ int) bool {
		if !u.Valid() {
			log.Warn("Skipping malformed stored user", "id", u.ID)
			return false
		}
		return true
	}), nil
}

func findUser(users []models.User, email string) (models.User, int, bool) {
	return lo.FindIndexOf(users, func(u models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
