package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/strandhq/strand/internal/audit"
	"github.com/strandhq/strand/internal/model"
	"github.com/strandhq/strand/internal/store"
)

type UserService struct {
	*AbstractService
}

func NewUserService(abstract *AbstractService) *UserService {
	return &UserService{AbstractService: abstract}
}

type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", ErrValidation, input.Email)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Password:  hashed,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		}

		return nil, err
	}

	s.auditor.Record(ctx, "user.create", audit.UserSubject(user.ID), map[string]string{"email": user.Email})

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users.GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.store.Users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// SetCurrentWorkspace moves the session-sticky workspace pointer. Two
// devices switching concurrently are both valid; the last write wins.
func (s *UserService) SetCurrentWorkspace(ctx context.Context, userID string, workspaceID *string) error {
	return s.store.Users.SetCurrentWorkspace(ctx, userID, workspaceID)
}
