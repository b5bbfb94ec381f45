// Package sqlite implements the repository interfaces on SQLite through the
// pure-Go modernc.org/sqlite driver.
//
// DATABASE/SQL OVERVIEW:
// sql.DB is a connection pool, not a single connection. Per-connection
// settings (foreign keys, busy timeout, WAL) are therefore passed as DSN
// pragmas so every pooled connection gets them, not only the first one.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/repository"
)

// DB wraps a sql.DB pool and hands out the per-entity repositories.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens (creating if needed) the database at path and runs migrations.
//
// path examples:
//   - "data/social.db" → file-based database (WAL mode)
//   - ":memory:"       → in-memory database, pinned to one connection
func New(path string) (*DB, error) {
	inMemory := strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")

	conn, err := sql.Open("sqlite", dsn(path, inMemory))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database.
	if inMemory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the connection pragmas understood by modernc.org/sqlite.
// _time_format=sqlite stores times as "YYYY-MM-DD HH:MM:SS.fffffffff+00:00",
// which keeps the first ten characters equal to the calendar date.
func dsn(path string, inMemory bool) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if !inMemory {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the pool can still reach the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// SetClock replaces the time source used for server-assigned timestamps.
// Tests use it to produce strictly increasing or back-dated times.
func (db *DB) SetClock(now func() time.Time) {
	db.now = func() time.Time { return now().UTC() }
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB { return &UserDB{db: db} }

// Posts returns the post repository backed by this database.
func (db *DB) Posts() *PostDB { return &PostDB{db: db} }

// Likes returns the like ledger backed by this database.
func (db *DB) Likes() *LikeDB { return &LikeDB{db: db} }

// migrate creates the schema. Every statement is idempotent.
//
// Deleting a user cascades to their posts and like events; deleting a post
// cascades to the like events on it.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created         DATETIME NOT NULL,
			logged_in       DATETIME NOT NULL,
			last_activity   DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			created     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			id      TEXT PRIMARY KEY,
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_like BOOLEAN NOT NULL,
			date    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);
		CREATE INDEX IF NOT EXISTS idx_likes_pair ON likes(user_id, post_id, id);
		CREATE INDEX IF NOT EXISTS idx_likes_date ON likes(date);
	`)
	if err != nil {
		return fmt.Errorf("creating likes table: %w", err)
	}

	return nil
}

// translate maps driver errors to domain errors. resource names the table
// being written; field is the column reported on a constraint violation.
func translate(err error, resource, field string) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Conflict(resource, field)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return apperror.InvalidReference(resource, field)
	}
	// Primary result code only (extended codes disabled on the connection).
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return apperror.Conflict(resource, field)
		case strings.Contains(msg, "FOREIGN KEY"):
			return apperror.InvalidReference(resource, field)
		}
	}
	return nil
}

// checkAffected turns "zero rows affected" into a NotFound error.
func checkAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// Store bundles the three repositories with db as their backend.
func (db *DB) Store() repository.Store {
	return repository.Store{
		Users:   db.Users(),
		Posts:   db.Posts(),
		Likes:   db.Likes(),
		Backend: db,
	}
}
