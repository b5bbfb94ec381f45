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

var _ repository.PostRepository = (*PostDB)(nil)

// PostDB is the posts table.
type PostDB struct {
	db *DB
}

const postColumns = `id, user_id, title, description, created`

func scanPost(s scanner, p *model.Post) error {
	return s.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Created)
}

// Create inserts a post owned by post.UserID. An unknown owner surfaces as
// apperror.ErrInvalidReference.
func (p *PostDB) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.Created = p.db.now()

	_, err := p.db.conn.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?)`,
		post.ID,
		post.UserID,
		post.Title,
		post.Description,
		post.Created,
	)
	if err != nil {
		if mapped := translate(err, "post", "user"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

func (p *PostDB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := scanPost(p.db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id,
	), &post)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return &post, nil
}

func (p *PostDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	opts = opts.Normalize()

	rows, err := p.db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, opts.Limit)
	for rows.Next() {
		var post model.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// Update changes title and description. Owner and creation time are fixed.
func (p *PostDB) Update(ctx context.Context, post *model.Post) error {
	result, err := p.db.conn.ExecContext(ctx,
		`UPDATE posts SET title = ?, description = ? WHERE id = ?`,
		post.Title,
		post.Description,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}
	return checkAffected(result, "post", post.ID)
}

// Delete removes the post and, by cascade, its like events.
func (p *PostDB) Delete(ctx context.Context, id string) error {
	result, err := p.db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return checkAffected(result, "post", id)
}
