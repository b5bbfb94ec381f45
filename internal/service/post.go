package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/social-ledger/internal/apperror"
	"github.com/sakif/social-ledger/internal/model"
	"github.com/sakif/social-ledger/internal/repository"
)

// PostService handles posts. Reads are public; writes require a caller, and
// update/delete require the caller to own the post.
type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, users: users, logger: logger}
}

func validatePost(title, description string) (string, string, error) {
	title, err := requireText("title", title, MaxTitleLength)
	if err != nil {
		return "", "", err
	}
	description = strings.TrimSpace(description)
	if len(description) > MaxDescriptionLength {
		return "", "", apperror.ValidationFailed("description", "description is too long")
	}
	return title, description, nil
}

// Create stores a post owned by the caller, then touches the caller's
// activity.
func (s *PostService) Create(ctx context.Context, caller *model.User, title, description string) (*model.Post, error) {
	title, description, err := validatePost(title, description)
	if err != nil {
		return nil, err
	}

	post := &model.Post{UserID: caller.ID, Title: title, Description: description}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	touchActivity(ctx, s.users, s.logger, caller.ID)

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("userID", caller.ID),
	)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	return RequireExists(s.posts.GetByID(ctx, id))
}

func (s *PostService) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return s.posts.List(ctx, opts)
}

// owned loads the post and checks the caller owns it. NotFound wins over
// Forbidden.
func (s *PostService) owned(ctx context.Context, caller *model.User, id string) (*model.Post, error) {
	post, err := RequireExists(s.posts.GetByID(ctx, id))
	if err != nil {
		return nil, err
	}
	if err := RequireOwnership(post.UserID, caller.ID); err != nil {
		return nil, err
	}
	return post, nil
}

// Update replaces title and description of one of the caller's posts.
func (s *PostService) Update(ctx context.Context, caller *model.User, id, title, description string) (*model.Post, error) {
	post, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	title, description, err = validatePost(title, description)
	if err != nil {
		return nil, err
	}

	touchActivity(ctx, s.users, s.logger, caller.ID)

	post.Title = title
	post.Description = description
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post updated", slog.String("postID", post.ID))
	return post, nil
}

// Delete removes one of the caller's posts and its like events.
func (s *PostService) Delete(ctx context.Context, caller *model.User, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}

	touchActivity(ctx, s.users, s.logger, caller.ID)

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", slog.String("postID", id))
	return nil
}
