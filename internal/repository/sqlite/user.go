package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table. It shares the pool of the DB that created it.
type UserDB struct {
	db *DB
}

const userColumns = `id, name, email, hashed_password, created, logged_in, last_activity`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, u *model.User) error {
	return s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.HashedPassword,
		&u.Created,
		&u.LoggedIn,
		&u.LastActivity,
	)
}

// Create inserts a new user. All three timestamps start at the same instant.
// A duplicate email surfaces as apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := u.db.now()
	user.ID = xid.New().String()
	user.Created = now
	user.LoggedIn = now
	user.LastActivity = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.Created,
		user.LoggedIn,
		user.LastActivity,
	)
	if err != nil {
		if mapped := translate(err, "user", "email"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail looks a user up by the unique email column.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found with email " + email,
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return &user, nil
}

// List returns a page of users ordered by ID. xid IDs sort by creation
// time, so this is insertion order.
func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	opts = opts.Normalize()

	rows, err := u.db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, opts.Limit)
	for rows.Next() {
		var user model.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update rewrites the mutable profile fields. Created and LoggedIn are left
// untouched; LastActivity is refreshed.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.LastActivity = u.db.now()

	result, err := u.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, hashed_password = ?, last_activity = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.LastActivity,
		user.ID,
	)
	if err != nil {
		if mapped := translate(err, "user", "email"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	return checkAffected(result, "user", user.ID)
}

// Delete removes the user. Their posts and like events go with them
// (ON DELETE CASCADE).
func (u *UserDB) Delete(ctx context.Context, id string) error {
	result, err := u.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return checkAffected(result, "user", id)
}

// TouchActivity sets last_activity to now.
func (u *UserDB) TouchActivity(ctx context.Context, id string) error {
	result, err := u.db.conn.ExecContext(ctx,
		`UPDATE users SET last_activity = ? WHERE id = ?`,
		u.db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching activity of user %s: %w", id, err)
	}
	return checkAffected(result, "user", id)
}

// TouchLogin records a successful login: logged_in and last_activity both
// move to now.
func (u *UserDB) TouchLogin(ctx context.Context, email string) error {
	now := u.db.now()
	result, err := u.db.conn.ExecContext(ctx,
		`UPDATE users SET logged_in = ?, last_activity = ? WHERE email = ?`,
		now, now, email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching login of %s: %w", email, err)
	}
	return checkAffected(result, "user", email)
}
