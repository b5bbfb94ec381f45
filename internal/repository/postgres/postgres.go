// Package postgres implements the repository interfaces on PostgreSQL with a
// pgx connection pool. The schema is managed by golang-migrate from SQL files
// embedded in the binary.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the postgres:// migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/repository"
)

// SQLSTATE codes we translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a pgxpool.Pool and hands out the per-entity repositories.
type DB struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to the database at url and verifies the connection.
// Migrations are not applied; call Migrate first.
func New(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database url: %w", err)
	}
	cfg.MaxConnIdleTime = 10 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	return &DB{pool: pool, now: defaultNow}, nil
}

// Postgres keeps microseconds; truncating here makes the value we return
// from Create equal to the value read back later.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Migrate applies every pending up migration. It is a no-op when the schema
// is current.
func Migrate(url string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("postgres: creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: running migrations: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// SetClock replaces the time source used for server-assigned timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = func() time.Time { return now().UTC().Truncate(time.Microsecond) }
}

func (db *DB) Users() *UserDB { return &UserDB{db: db} }
func (db *DB) Posts() *PostDB { return &PostDB{db: db} }
func (db *DB) Likes() *LikeDB { return &LikeDB{db: db} }

// Store bundles the three repositories with db as their backend.
func (db *DB) Store() repository.Store {
	return repository.Store{
		Users:   db.Users(),
		Posts:   db.Posts(),
		Likes:   db.Likes(),
		Backend: db,
	}
}

// translate maps constraint violations to domain errors, nil otherwise.
func translate(err error, resource, field string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.Conflict(resource, field)
	case pgForeignKeyViolation:
		return apperror.InvalidReference(resource, field)
	}
	return nil
}

func checkAffected(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
