// Package repository declares the storage contracts the services depend on.
//
// Implementations live in the sqlite and postgres sub-packages. Every
// implementation translates its driver's errors into apperror kinds:
// missing rows → ErrNotFound, unique violations → ErrConflict, foreign-key
// violations → ErrInvalidReference.
package repository

import (
	"context"

	"github.com/sakif/social-ledger/internal/model"
)

// Page size bounds shared by every List method.
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps the options to the supported range.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// DateRange is an inclusive range of UTC calendar dates, both YYYY-MM-DD.
type DateRange struct {
	From string
	To   string
}

type UserRepository interface {
	// Create assigns ID and sets Created, LoggedIn and LastActivity to now.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns users in insertion (id) order.
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// Update replaces name, email and hashed password. Created and LoggedIn
	// are preserved.
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	TouchActivity(ctx context.Context, id string) error
	TouchLogin(ctx context.Context, email string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	// Update replaces title and description only.
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

// LikeRepository is the append-only like ledger. There is no Update and no
// Delete.
type LikeRepository interface {
	// Create appends an event. ID is assigned; Date is set to now unless the
	// caller already set it.
	Create(ctx context.Context, event *model.LikeEvent) error
	GetByID(ctx context.Context, id string) (*model.LikeEvent, error)
	ListByPost(ctx context.Context, postID string, opts ListOptions) ([]model.LikeEvent, error)
	// Latest returns the most recent event for the (user, post) pair.
	Latest(ctx context.Context, userID, postID string) (*model.LikeEvent, error)
	// Analytics counts likes and unlikes per UTC day in the inclusive range,
	// ascending by date. Days without events are absent.
	Analytics(ctx context.Context, r DateRange) ([]model.LikeStat, error)
}

// Backend is the connection behind a Store.
type Backend interface {
	Ping(ctx context.Context) error
	Close() error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Users   UserRepository
	Posts   PostRepository
	Likes   LikeRepository
	Backend Backend
}
