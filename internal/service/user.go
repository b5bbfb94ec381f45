package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// UserInput carries the fields of a registration or a profile update.
type UserInput struct {
	Name      string
	Email     string
	Password  string
	Password2 string
}

// UserService handles registration and profile management.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// prepare validates in and returns a user carrying the hashed password.
// Email uniqueness is left to the database.
func (s *UserService) prepare(in UserInput) (*model.User, error) {
	name, err := requireText("name", in.Name, MaxNameLength)
	if err != nil {
		return nil, err
	}
	email, err := requireText("email", in.Email, MaxEmailLength)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email is not valid")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	if in.Password != in.Password2 {
		return nil, apperror.ValidationFailed("password2", "passwords don't match")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	return &model.User{Name: name, Email: email, HashedPassword: hash}, nil
}

// Register creates a new account. A taken email fails with Conflict.
func (s *UserService) Register(ctx context.Context, in UserInput) (*model.User, error) {
	user, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	return s.users.List(ctx, opts)
}

// ListActivity returns a page of users with their activity timestamps. It
// counts as activity of the caller, so the caller's own row is fresh.
func (s *UserService) ListActivity(ctx context.Context, caller *model.User, opts repository.ListOptions) ([]model.User, error) {
	touchActivity(ctx, s.users, s.logger, caller.ID)
	return s.users.List(ctx, opts)
}

// Update replaces name, email and password of the caller's own account.
// Another user's account is reported as NotFound, not Forbidden.
func (s *UserService) Update(ctx context.Context, caller *model.User, id string, in UserInput) (*model.User, error) {
	existing, err := RequireExists(s.users.GetByID(ctx, id))
	if err != nil {
		return nil, err
	}
	if existing.ID != caller.ID {
		return nil, apperror.NotFound("user", id)
	}

	next, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	existing.Name = next.Name
	existing.Email = next.Email
	existing.HashedPassword = next.HashedPassword

	// The repository refreshes last_activity as part of the update.
	if err := s.users.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.String("userID", existing.ID))
	return existing, nil
}

// Delete removes the caller's own account along with its posts and likes.
func (s *UserService) Delete(ctx context.Context, caller *model.User, id string) error {
	target, err := RequireExists(s.users.GetByID(ctx, id))
	if err != nil {
		return err
	}
	if err := RequireOwnership(target.ID, caller.ID); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}
