package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func appendEvent(t *testing.T, db *DB, user *model.User, post *model.Post, like bool, at time.Time) *model.LikeEvent {
	t.Helper()
	e := &model.LikeEvent{PostID: post.ID, UserID: user.ID, Like: like, Date: at}
	if err := db.Likes().Create(context.Background(), e); err != nil {
		t.Fatalf("failed to append like event: %v", err)
	}
	return e
}

// =========================================================================
// LEDGER TESTS
// =========================================================================

func TestLikeCreate_DefaultsDateToNow(t *testing.T) {
	db := newTestDB(t)
	fixed := day(2024, 3, 5, 9)
	db.SetClock(func() time.Time { return fixed })
	ann := createTestUser(t, db, "ann")
	post := createTestPost(t, db, ann, "p")

	e := &model.LikeEvent{PostID: post.ID, UserID: ann.ID, Like: true}
	if err := db.Likes().Create(context.Background(), e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if !e.Date.Equal(fixed) {
		t.Errorf("Date = %v, want %v", e.Date, fixed)
	}

	got, err := db.Likes().GetByID(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Like || got.PostID != post.ID || got.UserID != ann.ID || !got.Date.Equal(fixed) {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestLikeCreate_UnknownReferences(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	post := createTestPost(t, db, ann, "p")

	cases := map[string]*model.LikeEvent{
		"unknown post": {PostID: "ghost", UserID: ann.ID, Like: true},
		"unknown user": {PostID: post.ID, UserID: "ghost", Like: true},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			err := db.Likes().Create(context.Background(), e)
			if !errors.Is(err, apperror.ErrInvalidReference) {
				t.Fatalf("Create() error = %v, want ErrInvalidReference", err)
			}
		})
	}
}

func TestLikeLatest_FollowsAppendOrder(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	post := createTestPost(t, db, ann, "p")

	if _, err := db.Likes().Latest(context.Background(), ann.ID, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Latest() on empty ledger error = %v, want ErrNotFound", err)
	}

	first := appendEvent(t, db, ann, post, true, day(2024, 1, 1, 10))
	second := appendEvent(t, db, ann, post, false, day(2024, 1, 1, 11))

	latest, err := db.Likes().Latest(context.Background(), ann.ID, post.ID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID || latest.Like {
		t.Errorf("Latest() = %+v, want the unlike %s", latest, second.ID)
	}

	// The ledger is append-only: the first event is still there, unchanged.
	got, err := db.Likes().GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetByID(first) error = %v", err)
	}
	if !got.Like {
		t.Error("first event was modified")
	}
}

func TestLikeListByPost(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	bob := createTestUser(t, db, "bob")
	p1 := createTestPost(t, db, ann, "p1")
	p2 := createTestPost(t, db, ann, "p2")

	appendEvent(t, db, ann, p1, true, day(2024, 1, 1, 1))
	appendEvent(t, db, bob, p1, true, day(2024, 1, 1, 2))
	appendEvent(t, db, bob, p2, true, day(2024, 1, 1, 3))
	appendEvent(t, db, ann, p1, false, day(2024, 1, 1, 4))

	events, err := db.Likes().ListByPost(context.Background(), p1.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListByPost() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("ListByPost() returned %d events, want 3", len(events))
	}
	wantLikes := []bool{true, true, false}
	for i, e := range events {
		if e.PostID != p1.ID {
			t.Errorf("event %d belongs to post %s", i, e.PostID)
		}
		if e.Like != wantLikes[i] {
			t.Errorf("event %d Like = %v, want %v", i, e.Like, wantLikes[i])
		}
	}
}

// =========================================================================
// ANALYTICS TESTS
// =========================================================================

func TestLikeAnalytics_BucketsByDay(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	bob := createTestUser(t, db, "bob")
	cid := createTestUser(t, db, "cid")
	post := createTestPost(t, db, ann, "p")

	// 2024-01-01: two likes and one unlike. 2024-01-02: one like.
	// 2024-01-03 has nothing and must be absent. 2024-01-05 is out of range.
	appendEvent(t, db, ann, post, true, day(2024, 1, 1, 0))
	appendEvent(t, db, bob, post, true, day(2024, 1, 1, 12))
	appendEvent(t, db, ann, post, false, day(2024, 1, 1, 23))
	appendEvent(t, db, cid, post, true, day(2024, 1, 2, 8))
	appendEvent(t, db, cid, post, false, day(2024, 1, 5, 8))

	got, err := db.Likes().Analytics(context.Background(), repository.DateRange{From: "2024-01-01", To: "2024-01-03"})
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	want := []model.LikeStat{
		{Likes: 2, Unlikes: 1, Date: "2024-01-01"},
		{Likes: 1, Unlikes: 0, Date: "2024-01-02"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analytics() = %+v, want %+v", got, want)
	}
}

func TestLikeAnalytics_SingleDayAndEmpty(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	post := createTestPost(t, db, ann, "p")
	appendEvent(t, db, ann, post, true, day(2024, 2, 29, 23))

	got, err := db.Likes().Analytics(context.Background(), repository.DateRange{From: "2024-02-29", To: "2024-02-29"})
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if len(got) != 1 || got[0] != (model.LikeStat{Likes: 1, Date: "2024-02-29"}) {
		t.Errorf("Analytics(single day) = %+v", got)
	}

	got, err = db.Likes().Analytics(context.Background(), repository.DateRange{From: "2023-01-01", To: "2023-12-31"})
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Analytics(empty range) = %#v, want empty non-nil slice", got)
	}
}

func TestLikeAnalytics_UsesUTCDay(t *testing.T) {
	db := newTestDB(t)
	ann := createTestUser(t, db, "ann")
	post := createTestPost(t, db, ann, "p")

	// 23:30 on Jan 1 in UTC-5 is 04:30 on Jan 2 in UTC.
	est := time.FixedZone("EST", -5*60*60)
	appendEvent(t, db, ann, post, true, time.Date(2024, 1, 1, 23, 30, 0, 0, est))

	got, err := db.Likes().Analytics(context.Background(), repository.DateRange{From: "2024-01-01", To: "2024-01-02"})
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if len(got) != 1 || got[0].Date != "2024-01-02" {
		t.Errorf("Analytics() = %+v, want a single 2024-01-02 bucket", got)
	}
}
