package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// AccessControl turns bearer tokens into users and answers ownership
// questions. It implements auth.CallerResolver.
type AccessControl struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

var _ auth.CallerResolver = (*AccessControl)(nil)

func NewAccessControl(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AccessControl {
	return &AccessControl{users: users, tokens: tokens, logger: logger}
}

// ResolveCaller validates the token and loads the user named by its subject.
// The user is looked up on every call, so a token outlives neither its expiry
// nor the deletion of its user.
func (a *AccessControl) ResolveCaller(ctx context.Context, token string) (*model.User, error) {
	email, err := a.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.Unauthorized("token has expired")
		}
		a.logger.Debug("rejected bearer token", slog.String("error", err.Error()))
		return nil, apperror.Unauthorized("could not validate credentials")
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("could not validate credentials")
		}
		return nil, err
	}
	return user, nil
}

// RequireExists passes a lookup result through, turning a nil entity into
// NotFound. Lookup errors (NotFound included) are returned unchanged, so it
// wraps a repository call directly:
//
//	post, err := RequireExists(s.posts.GetByID(ctx, id))
func RequireExists[T any](entity *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "resource not found"}
	}
	return entity, nil
}

// RequireOwnership fails with Forbidden unless the caller owns the entity.
func RequireOwnership(ownerID, callerID string) error {
	if ownerID != callerID {
		return apperror.Forbidden("you do not have permission to perform this action")
	}
	return nil
}
