package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// DateLayout is the format of analytics range bounds and buckets.
const DateLayout = "2006-01-02"

// LikeService appends to and reads from the like ledger.
//
// LEDGER SEMANTICS:
// Every like and every unlike is a new row. Nothing is updated in place and
// nothing is deduplicated: liking the same post twice records two likes.
// The "current state" of a (user, post) pair is derived on read from its
// latest event.
type LikeService struct {
	likes  repository.LikeRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewLikeService(likes repository.LikeRepository, users repository.UserRepository, logger *slog.Logger) *LikeService {
	return &LikeService{likes: likes, users: users, logger: logger}
}

// Like appends a like=true event. An unknown post fails with
// InvalidReference from the foreign key.
func (s *LikeService) Like(ctx context.Context, caller *model.User, postID string) (*model.LikeEvent, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("post_id", "post_id is required")
	}

	event := &model.LikeEvent{PostID: postID, UserID: caller.ID, Like: true}
	if err := s.likes.Create(ctx, event); err != nil {
		return nil, err
	}
	touchActivity(ctx, s.users, s.logger, caller.ID)

	s.logger.Info("post liked",
		slog.String("eventID", event.ID),
		slog.String("postID", postID),
		slog.String("userID", caller.ID),
	)
	return event, nil
}

// Unlike appends a like=false event anchored on an earlier event. The anchor
// must exist (NotFound) and must belong to the caller and to postID
// (Forbidden). The anchor itself is never modified.
func (s *LikeService) Unlike(ctx context.Context, caller *model.User, eventID, postID string) (*model.LikeEvent, error) {
	anchor, err := RequireExists(s.likes.GetByID(ctx, eventID))
	if err != nil {
		return nil, err
	}
	if err := RequireOwnership(anchor.UserID, caller.ID); err != nil {
		return nil, err
	}
	if anchor.PostID != postID {
		return nil, apperror.Forbidden("like event does not belong to this post")
	}

	event := &model.LikeEvent{PostID: postID, UserID: caller.ID, Like: false}
	if err := s.likes.Create(ctx, event); err != nil {
		return nil, err
	}
	touchActivity(ctx, s.users, s.logger, caller.ID)

	s.logger.Info("post unliked",
		slog.String("eventID", event.ID),
		slog.String("anchorID", anchor.ID),
		slog.String("postID", postID),
		slog.String("userID", caller.ID),
	)
	return event, nil
}

// Analytics returns per-day like and unlike counts for the inclusive UTC
// date range [from, to]. Days without events are omitted.
func (s *LikeService) Analytics(ctx context.Context, from, to string) ([]model.LikeStat, error) {
	fromDate, err := parseDate("date_from", from)
	if err != nil {
		return nil, err
	}
	toDate, err := parseDate("date_to", to)
	if err != nil {
		return nil, err
	}
	if fromDate.After(toDate) {
		return nil, apperror.ValidationFailed("date_from", "date_from must not be after date_to")
	}

	return s.likes.Analytics(ctx, repository.DateRange{
		From: fromDate.Format(DateLayout),
		To:   toDate.Format(DateLayout),
	})
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperror.ValidationFailed(field, field+" is required")
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, field+" must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

// ListByPost returns the raw ledger of one post in append order.
func (s *LikeService) ListByPost(ctx context.Context, postID string, opts repository.ListOptions) ([]model.LikeEvent, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.ValidationFailed("post_id", "post_id is required")
	}
	return s.likes.ListByPost(ctx, postID, opts)
}

// State derives whether the caller currently likes the post. NotFound means
// the caller never acted on it.
func (s *LikeService) State(ctx context.Context, caller *model.User, postID string) (*model.LikeState, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.ValidationFailed("post_id", "post_id is required")
	}
	latest, err := RequireExists(s.likes.Latest(ctx, caller.ID, postID))
	if err != nil {
		return nil, err
	}
	state := model.StateOf(latest)
	return &state, nil
}
