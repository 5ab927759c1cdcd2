package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User is a stored operator account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Email        *string
	Role         string
}

// Profile is the public view of a user returned on login.
type Profile struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

// Profile strips credentials from the user.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserStore is the persistence the auth service needs.
type UserStore interface {
	// UserByUsername returns ErrNotFound when no such user exists.
	UserByUsername(ctx context.Context, username string) (User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// Service authenticates users and issues tokens.
type Service struct {
	users  UserStore
	tokens *Tokens
	// onRehashError is invoked when a legacy password could not be upgraded.
	onRehashError func(userID string, err error)
}

// NewService wires a user store with a token signer.
func NewService(users UserStore, tokens *Tokens, onRehashError func(userID string, err error)) *Service {
	return &Service{users: users, tokens: tokens, onRehashError: onRehashError}
}

// Tokens exposes the signer used for verification.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Login validates credentials and issues a token. Unknown users and wrong
// passwords both yield ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidInput
	}
	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			burnPasswordCheck(password)
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	needsRehash, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	if needsRehash {
		s.upgradePassword(ctx, user.ID, password)
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: user.Profile()}, nil
}

// Verify validates a bearer token.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) upgradePassword(ctx context.Context, userID, password string) {
	hash, err := HashPassword(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil && s.onRehashError != nil {
		s.onRehashError(userID, err)
	}
}
