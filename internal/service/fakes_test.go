package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/config"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They keep insertion
// order in a slice (the real stores order by time-sortable IDs) and share a
// clock that advances one second per call, so every timestamp is strictly
// greater than the previous one.

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func page[T any](items []T, opts repository.ListOptions) []T {
	opts = opts.Normalize()
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

type fakeUserRepo struct {
	clock *fakeClock
	order []string
	users map[string]*model.User
	next  int

	touches  []string
	logins   []string
	touchErr error
	listErr  error
}

func newFakeUserRepo(clock *fakeClock) *fakeUserRepo {
	return &fakeUserRepo{clock: clock, users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	f.next++
	now := f.clock.Now()
	user.ID = fmt.Sprintf("user-%d", f.next)
	user.Created, user.LoggedIn, user.LastActivity = now, now, now
	stored := *user
	f.users[user.ID] = &stored
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := make([]model.User, 0, len(f.order))
	for _, id := range f.order {
		if u, ok := f.users[id]; ok {
			all = append(all, *u)
		}
	}
	return page(all, opts), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	user.LastActivity = f.clock.Now()
	stored.Name, stored.Email, stored.HashedPassword = user.Name, user.Email, user.HashedPassword
	stored.LastActivity = user.LastActivity
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) TouchActivity(_ context.Context, id string) error {
	f.touches = append(f.touches, id)
	if f.touchErr != nil {
		return f.touchErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.LastActivity = f.clock.Now()
	return nil
}

func (f *fakeUserRepo) TouchLogin(_ context.Context, email string) error {
	f.logins = append(f.logins, email)
	for _, u := range f.users {
		if u.Email == email {
			now := f.clock.Now()
			u.LoggedIn, u.LastActivity = now, now
			return nil
		}
	}
	return apperror.NotFound("user", email)
}

type fakePostRepo struct {
	clock *fakeClock
	users *fakeUserRepo
	order []string
	posts map[string]*model.Post
	next  int
}

func newFakePostRepo(clock *fakeClock, users *fakeUserRepo) *fakePostRepo {
	return &fakePostRepo{clock: clock, users: users, posts: make(map[string]*model.Post)}
}

func (f *fakePostRepo) Create(_ context.Context, post *model.Post) error {
	if _, ok := f.users.users[post.UserID]; !ok {
		return apperror.InvalidReference("post", "user")
	}
	f.next++
	post.ID = fmt.Sprintf("post-%d", f.next)
	post.Created = f.clock.Now()
	stored := *post
	f.posts[post.ID] = &stored
	f.order = append(f.order, post.ID)
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	all := make([]model.Post, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.posts[id]; ok {
			all = append(all, *p)
		}
	}
	return page(all, opts), nil
}

func (f *fakePostRepo) Update(_ context.Context, post *model.Post) error {
	stored, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	stored.Title, stored.Description = post.Title, post.Description
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

type fakeLikeRepo struct {
	clock  *fakeClock
	posts  *fakePostRepo
	events []model.LikeEvent
	next   int

	analyticsRange repository.DateRange
}

func newFakeLikeRepo(clock *fakeClock, posts *fakePostRepo) *fakeLikeRepo {
	return &fakeLikeRepo{clock: clock, posts: posts}
}

func (f *fakeLikeRepo) Create(_ context.Context, event *model.LikeEvent) error {
	if _, ok := f.posts.posts[event.PostID]; !ok {
		return apperror.InvalidReference("like", "post or user")
	}
	if _, ok := f.posts.users.users[event.UserID]; !ok {
		return apperror.InvalidReference("like", "post or user")
	}
	f.next++
	event.ID = fmt.Sprintf("like-%d", f.next)
	if event.Date.IsZero() {
		event.Date = f.clock.Now()
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeLikeRepo) GetByID(_ context.Context, id string) (*model.LikeEvent, error) {
	for _, e := range f.events {
		if e.ID == id {
			copied := e
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("like", id)
}

func (f *fakeLikeRepo) ListByPost(_ context.Context, postID string, opts repository.ListOptions) ([]model.LikeEvent, error) {
	var out []model.LikeEvent
	for _, e := range f.events {
		if e.PostID == postID {
			out = append(out, e)
		}
	}
	return page(out, opts), nil
}

func (f *fakeLikeRepo) Latest(_ context.Context, userID, postID string) (*model.LikeEvent, error) {
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if e.UserID == userID && e.PostID == postID {
			return &e, nil
		}
	}
	return nil, apperror.NotFound("like state for post", postID)
}

func (f *fakeLikeRepo) Analytics(_ context.Context, r repository.DateRange) ([]model.LikeStat, error) {
	f.analyticsRange = r
	var stats []model.LikeStat
	for _, e := range f.events {
		d := e.Date.UTC().Format(DateLayout)
		if d < r.From || d > r.To {
			continue
		}
		if n := len(stats); n == 0 || stats[n-1].Date != d {
			stats = append(stats, model.LikeStat{Date: d})
		}
		if e.Like {
			stats[len(stats)-1].Likes++
		} else {
			stats[len(stats)-1].Unlikes++
		}
	}
	return stats, nil
}

// =========================================================================
// FIXTURE
// =========================================================================

type fixture struct {
	clock  *fakeClock
	users  *fakeUserRepo
	posts  *fakePostRepo
	likes  *fakeLikeRepo
	tokens *auth.TokenService

	access   *AccessControl
	authSvc  *AuthService
	userSvc  *UserService
	postSvc  *PostService
	likeSvc  *LikeService
	password *auth.PasswordService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	users := newFakeUserRepo(clock)
	posts := newFakePostRepo(clock, users)
	likes := newFakeLikeRepo(clock, posts)

	tokens, err := auth.NewTokenService(config.TokenConfig{
		Secret:    "service-test-secret-32-chars!!!!",
		Algorithm: "HS256",
		Lifetime:  30 * time.Minute,
		Issuer:    "social-ledger",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest()
	logger := discardLogger()

	return &fixture{
		clock:    clock,
		users:    users,
		posts:    posts,
		likes:    likes,
		tokens:   tokens,
		access:   NewAccessControl(users, tokens, logger),
		authSvc:  NewAuthService(users, tokens, passwords, logger),
		userSvc:  NewUserService(users, passwords, logger),
		postSvc:  NewPostService(posts, users, logger),
		likeSvc:  NewLikeService(likes, users, logger),
		password: passwords,
	}
}

// register creates a user through the service with password "secret".
func (f *fixture) register(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.userSvc.Register(context.Background(), UserInput{
		Name:      name,
		Email:     name + "@example.com",
		Password:  "secret",
		Password2: "secret",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return u
}

// stored returns the repository's current copy of a user.
func (f *fixture) stored(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	return u
}

var (
	_ repository.UserRepository = (*fakeUserRepo)(nil)
	_ repository.PostRepository = (*fakePostRepo)(nil)
	_ repository.LikeRepository = (*fakeLikeRepo)(nil)
)
