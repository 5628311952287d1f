// Package auth signs librarians and members in against the seeded user list
// and keeps one session marker per role in the Store.
package auth

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/stacks/internal/logging"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Service performs sign-in and sign-out.
type Service struct {
	store  types.Store
	logger logging.Logger
	now    func() time.Time
	cost   int
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithHashCost sets the bcrypt cost used when seeding.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// New returns a Service over store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.Noop(),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// seedUser is a built-in account with its plain-text secret.
type seedUser struct {
	role   types.Role
	name   string
	login  string
	secret string
}

var builtInUsers = []seedUser{
	{role: types.RoleLibrarian, name: "Librarian", login: "admin", secret: "admin123"},
	{role: types.RoleMember, name: "Adriana", login: "12345678", secret: "4321"},
	{role: types.RoleMember, name: "John", login: "87654321", secret: "1234"},
}

// SeedUsers installs the built-in librarian and members when the Users
// collection is empty and reports whether it did.
func (s *Service) SeedUsers() (bool, error) {
	users, err := s.store.LoadUsers()
	if err != nil {
		return false, fmt.Errorf("seed users: %w", err)
	}
	if len(users) > 0 {
		return false, nil
	}
	for _, su := range builtInUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.secret), s.cost)
		if err != nil {
			return false, fmt.Errorf("seed users: hashing secret for %s: %w", su.name, err)
		}
		u := types.User{Role: su.role, Name: su.name}
		if su.role == types.RoleLibrarian {
			u.Username = su.login
			u.PasswordHash = string(hash)
		} else {
			u.CardNumber = su.login
			u.PINHash = string(hash)
		}
		users = append(users, u)
	}
	if err := s.store.SaveUsers(users); err != nil {
		return false, fmt.Errorf("seed users: %w", err)
	}
	s.logger.Info("users seeded", "users", len(users))
	return true, nil
}

// LoginLibrarian signs a librarian in and records the session.
func (s *Service) LoginLibrarian(username, password string) (types.Session, error) {
	username = strings.TrimSpace(username)
	users, err := s.store.LoadUsers()
	if err != nil {
		return types.Session{}, fmt.Errorf("login: %w", err)
	}
	for _, u := range users {
		if u.Role != types.RoleLibrarian || u.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		return s.startSession(types.Session{Role: types.RoleLibrarian, Username: u.Username, Name: u.Name})
	}
	s.logger.Warn("librarian login failed", "username", username)
	return types.Session{}, types.ErrInvalidCredentials
}

// LoginMember signs a member in by card number and PIN and records the
// session.
func (s *Service) LoginMember(cardNumber, pin string) (types.Session, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	users, err := s.store.LoadUsers()
	if err != nil {
		return types.Session{}, fmt.Errorf("login: %w", err)
	}
	for _, u := range users {
		if u.Role != types.RoleMember || u.CardNumber != cardNumber {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) != nil {
			break
		}
		return s.startSession(types.Session{Role: types.RoleMember, CardNumber: u.CardNumber, Name: u.Name})
	}
	s.logger.Warn("member login failed", "card", cardNumber)
	return types.Session{}, types.ErrInvalidCredentials
}

func (s *Service) startSession(session types.Session) (types.Session, error) {
	session.LoggedInAt = s.now().UTC()
	if err := s.store.SaveSession(session); err != nil {
		return types.Session{}, fmt.Errorf("login: %w", err)
	}
	s.logger.Info("signed in", "role", session.Role, "name", session.Name)
	return session, nil
}

// Logout clears the session for role. Logging out twice is not an error.
func (s *Service) Logout(role types.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}
	if err := s.store.ClearSession(role); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("signed out", "role", role)
	return nil
}

// Current returns the session for role, or ErrNoSession.
func (s *Service) Current(role types.Role) (types.Session, error) {
	if !role.Valid() {
		return types.Session{}, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}
	return s.store.LoadSession(role)
}
