package services

import (
	"context"
	"errors"

	"github.com/synchrony-app/apiserver/internal/store"
	"github.com/synchrony-app/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Create inserts a new account after confirming the email is unused.
// The duplicate check runs proactively rather than relying on
// constraint-violation translation.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}
	return s.repo.Create(ctx, user)
}

// UpdateProfile applies a partial update: empty fields keep their
// current value.
func (s *UserService) UpdateProfile(ctx context.Context, id int, name, email, dateOfBirth string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}
	if dateOfBirth != "" {
		user.DateOfBirth = dateOfBirth
	}

	return s.repo.Update(ctx, user)
}
