package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-oauthd/oauthd/internal/core"
	"github.com/go-oauthd/oauthd/internal/models"
	"github.com/go-oauthd/oauthd/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService owns resource-owner accounts: registration and password
// authentication for the login step of the browser flows.
type UserService struct {
	store core.Store
}

func NewUserService(s core.Store) *UserService {
	return &UserService{store: s}
}

// Authenticate verifies username and password and returns the user.
// Unknown username and wrong password produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, validationErr("username and password are required")
	}

	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidGrantErr("invalid username or password")
		}
		return nil, storeFaultErr(err)
	}
	if !user.IsActive {
		return nil, invalidGrantErr("invalid username or password")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalidGrantErr("invalid username or password")
	}

	return user, nil
}

// Register creates a new active user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationErr("username is required")
	}
	if len(password) < 8 {
		return nil, validationErr("password must be at least 8 characters")
	}

	if _, err := s.store.GetUserByUsername(username); err == nil {
		return nil, validationErr("username is already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeFaultErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		IsActive:     true,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, storeFaultErr(err)
	}

	return user, nil
}
