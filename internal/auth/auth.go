// Package auth is the identity collaborator: account creation, credential
// checks and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// MaxPasswordLength is the most bytes bcrypt will hash.
	MaxPasswordLength = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrUserNotFound       = errors.New("user not found")
)

// User is the public profile of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore persists accounts. CreateUser returns ErrEmailTaken for a
// duplicate email and UserByEmail returns ErrUserNotFound when absent.
type UserStore interface {
	CreateUser(ctx context.Context, u User, passwordHash []byte) error
	UserByEmail(ctx context.Context, email string) (User, []byte, error)
	UserByID(ctx context.Context, id string) (User, error)
}

// Provider is what the HTTP layer needs from identity.
type Provider interface {
	SignUp(ctx context.Context, email, password, fullName string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (User, bool)
}

type token struct {
	userID    string
	expiresAt time.Time
}

// Service implements Provider with bcrypt hashes and opaque UUID tokens kept
// in process memory.
type Service struct {
	users UserStore
	ttl   time.Duration
	cost  int
	now   func() time.Time

	mu     sync.Mutex
	tokens map[string]token
}

var _ Provider = (*Service)(nil)

type Option func(*Service)

// WithBcryptCost overrides the hash cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option { return func(s *Service) { s.cost = cost } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(users UserStore, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		tokens: make(map[string]token),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeEmail lowercases and trims an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return Session{}, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u, hash); err != nil {
		return Session{}, err
	}
	return s.issue(u), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	u, hash, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u), nil
}

// SignOut forgets the token. Unknown tokens are not an error.
func (s *Service) SignOut(_ context.Context, tok string) error {
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, tok string) (User, bool) {
	if tok == "" {
		return User{}, false
	}
	s.mu.Lock()
	t, ok := s.tokens[tok]
	if ok && !s.now().Before(t.expiresAt) {
		delete(s.tokens, tok)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return User{}, false
	}
	u, err := s.users.UserByID(ctx, t.userID)
	if err != nil {
		return User{}, false
	}
	return u, true
}

func (s *Service) issue(u User) Session {
	tok := uuid.NewString()
	exp := s.now().Add(s.ttl)
	s.mu.Lock()
	s.tokens[tok] = token{userID: u.ID, expiresAt: exp}
	s.mu.Unlock()
	return Session{State: StateSignedIn, Token: tok, User: u, ExpiresAt: exp}
}

// PruneExpired drops expired tokens and returns how many were removed.
func (s *Service) PruneExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, t := range s.tokens {
		if !now.Before(t.expiresAt) {
			delete(s.tokens, k)
			n++
		}
	}
	return n
}
