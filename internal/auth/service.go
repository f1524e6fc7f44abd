// Package auth implements signup, login and session resolution on top of the
// user store and the Redis session store.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
)

// SessionTTL is the fixed session lifetime. Lookups never extend it.
const SessionTTL = 24 * time.Hour

// UserStore is the slice of the metadata store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Sessions is the token store: opaque token -> userID with expiry.
type Sessions interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Service validates credentials and manages session tokens.
type Service struct {
	users    UserStore
	sessions Sessions
	digester Digester
}

// NewService creates an auth service
func NewService(users UserStore, sessions Sessions, digester Digester) *Service {
	return &Service{users: users, sessions: sessions, digester: digester}
}

// Register creates a new user. Email and password are required; an email
// already in use fails with "Already exist" and never creates a duplicate.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.NewValidationError("Missing email")
	}
	if password == "" {
		return nil, common.NewValidationError("Missing password")
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, common.NewValidationError("Already exist")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	digest, err := s.digester.Sum(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordDigest: digest,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, common.ErrInternal
	}

	return user, nil
}

// Login checks email+password against the stored digest and, on success,
// issues a cryptographically random opaque token with a 24-hour session.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", common.ErrUnauthorized
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", common.ErrInternal
	}

	if !s.digester.Compare(user.PasswordDigest, password) {
		return "", common.ErrUnauthorized
	}

	token := uuid.New().String()
	if err := s.sessions.Save(ctx, token, user.ID, SessionTTL); err != nil {
		return "", common.ErrInternal
	}

	return token, nil
}

// Logout deletes the session behind token. An unknown or already removed
// token fails with ErrUnauthorized, so a second logout is rejected.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrUnauthorized
	}
	if _, err := s.sessions.Get(ctx, token); err != nil {
		return common.ErrUnauthorized
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return common.ErrInternal
	}
	return nil
}

// ResolveSession maps a token to its userID. Any lookup failure, transient
// store errors included, reads as unauthenticated.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrUnauthorized
	}
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", common.ErrUnauthorized
	}
	return userID, nil
}

// CurrentUser resolves a token to the full user record
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		// Session without a backing user reads as unauthenticated.
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	return user, nil
}
