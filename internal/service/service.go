// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and *model values, never HTTP types, and return
// apperror kinds that the handler maps to status codes. Every dependency is
// an interface from the repository package, so tests inject in-memory fakes
// and the server picks SQLite or PostgreSQL at startup.
//
// AUTHENTICATED WRITES follow one pattern:
//
//	resolve caller → require target exists → require ownership → touch activity → mutate
//
// Creates (posts, likes) touch activity after the insert instead, so a failed
// insert leaves last_activity alone. No transaction spans the mutation and the
// touch.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/repository"
)

// Input limits.
const (
	MaxNameLength        = 100
	MaxEmailLength       = 254
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
)

// touchActivity refreshes the caller's last_activity. A failure is logged and
// swallowed: the caller's mutation either already happened or is about to,
// and stale activity is acceptable.
func touchActivity(ctx context.Context, users repository.UserRepository, logger *slog.Logger, userID string) {
	if err := users.TouchActivity(ctx, userID); err != nil {
		logger.Warn("failed to touch user activity",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}
}

// requireText trims s and checks it is non-empty and at most max bytes.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if len(s) > max {
		return "", apperror.ValidationFailed(field, field+" is too long")
	}
	return s, nil
}
