package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// AuthService handles password login.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), TokenService (JWT)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// errBadCredentials is shared by the unknown-email and wrong-password paths
// so a caller cannot probe which emails are registered.
func errBadCredentials() error {
	return apperror.Unauthorized("incorrect email or password")
}

// Login checks the credentials and issues an access token whose subject is
// the user's email. logged_in and last_activity are touched exactly once.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Token, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if !s.passwords.Verify(password, user.HashedPassword) {
		s.logger.Info("login rejected", slog.String("userID", user.ID))
		return nil, errBadCredentials()
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	if err := s.users.TouchLogin(ctx, user.Email); err != nil {
		return nil, fmt.Errorf("service/auth: recording login of user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &model.Token{AccessToken: token, TokenType: model.TokenTypeBearer}, nil
}
