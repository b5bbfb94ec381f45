package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	db *DB
}

const userColumns = `id, name, email, hashed_password, created, logged_in, last_activity`

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Created, &u.LoggedIn, &u.LastActivity)
}

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := u.db.now()
	user.ID = xid.New().String()
	user.Created = now
	user.LoggedIn = now
	user.LastActivity = now

	_, err := u.db.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.HashedPassword,
		user.Created, user.LoggedIn, user.LastActivity,
	)
	if err != nil {
		if mapped := translate(err, "user", "email"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("postgres: creating user: %w", err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := scanUser(u.db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return &user, nil
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := scanUser(u.db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found with email " + email,
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return &user, nil
}

func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	opts = opts.Normalize()

	rows, err := u.db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY id COLLATE "C"
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, opts.Limit)
	for rows.Next() {
		var user model.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.LastActivity = u.db.now()

	tag, err := u.db.pool.Exec(ctx,
		`UPDATE users
		 SET name = $1, email = $2, hashed_password = $3, last_activity = $4
		 WHERE id = $5`,
		user.Name, user.Email, user.HashedPassword, user.LastActivity, user.ID,
	)
	if err != nil {
		if mapped := translate(err, "user", "email"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("postgres: updating user %s: %w", user.ID, err)
	}
	return checkAffected(tag, "user", user.ID)
}

func (u *UserDB) Delete(ctx context.Context, id string) error {
	tag, err := u.db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}
	return checkAffected(tag, "user", id)
}

func (u *UserDB) TouchActivity(ctx context.Context, id string) error {
	tag, err := u.db.pool.Exec(ctx,
		`UPDATE users SET last_activity = $1 WHERE id = $2`, u.db.now(), id)
	if err != nil {
		return fmt.Errorf("postgres: touching activity of user %s: %w", id, err)
	}
	return checkAffected(tag, "user", id)
}

func (u *UserDB) TouchLogin(ctx context.Context, email string) error {
	now := u.db.now()
	tag, err := u.db.pool.Exec(ctx,
		`UPDATE users SET logged_in = $1, last_activity = $1 WHERE email = $2`, now, email)
	if err != nil {
		return fmt.Errorf("postgres: touching login of %s: %w", email, err)
	}
	return checkAffected(tag, "user", email)
}
