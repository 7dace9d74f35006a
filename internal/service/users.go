package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"clubevents/internal/model"
	"clubevents/internal/repo"
)

// UserService covers sign-up, login and member administration. Passwords
// are compared as stored; there is no hashing or session handling.
type UserService struct {
	repo repo.Repository
	log  *zerolog.Logger
}

func NewUserService(repo repo.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: logger}
}

// SignUp creates an active member account.
func (s *UserService) SignUp(ctx context.Context, u *model.User) (*model.User, error) {
	u.Role = model.RoleMember
	u.Status = model.UserActive
	return s.create(ctx, u)
}

// Create is the administrator variant of SignUp; role and status default to
// member and active.
func (s *UserService) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleMember
	}
	if u.Status == "" {
		u.Status = model.UserActive
	}
	return s.create(ctx, u)
}

func (s *UserService) create(ctx context.Context, u *model.User) (*model.User, error) {
	if err := normalizeUser(u); err != nil {
		return nil, err
	}
	if u.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, storageErr("create user", err)
	}
	s.log.Info().Int64("user_id", u.ID).Str("role", u.Role).Msg("user created")
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByCredentials(ctx, strings.TrimSpace(email), password)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageErr("login", err)
	}
	return u, nil
}

// Update changes a user's profile. An empty password keeps the current one.
func (s *UserService) Update(ctx context.Context, u *model.User) error {
	if err := normalizeUser(u); err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = model.RoleMember
	}
	if u.Status == "" {
		u.Status = model.UserActive
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return storageErr("update user", err)
	}
	s.log.Info().Int64("user_id", u.ID).Msg("user updated")
	return nil
}

// Delete removes the user together with their registrations.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUserTx(ctx, id); err != nil {
		return storageErr("delete user", err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

func normalizeUser(u *model.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
	if u.Name == "" || u.Email == "" {
		return fmt.Errorf("%w: name and email are required", ErrInvalidUser)
	}
	switch u.Role {
	case "", model.RoleMember, model.RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}
	switch u.Status {
	case "", model.UserActive, model.UserInactive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUser, u.Status)
	}
	return nil
}
