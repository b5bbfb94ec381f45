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

var _ repository.PostRepository = (*PostDB)(nil)

type PostDB struct {
	db *DB
}

const postColumns = `id, user_id, title, description, created`

func scanPost(row pgx.Row, p *model.Post) error {
	return row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Created)
}

func (p *PostDB) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.Created = p.db.now()

	_, err := p.db.pool.Exec(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.UserID, post.Title, post.Description, post.Created,
	)
	if err != nil {
		if mapped := translate(err, "post", "user"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("postgres: creating post: %w", err)
	}
	return nil
}

func (p *PostDB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := scanPost(p.db.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id), &post)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("postgres: getting post %s: %w", id, err)
	}
	return &post, nil
}

func (p *PostDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	opts = opts.Normalize()

	rows, err := p.db.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY id COLLATE "C"
		 LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, opts.Limit)
	for rows.Next() {
		var post model.Post
		if err := scanPost(rows, &post); err != nil {
			return nil, fmt.Errorf("postgres: scanning post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating posts: %w", err)
	}
	return posts, nil
}

func (p *PostDB) Update(ctx context.Context, post *model.Post) error {
	tag, err := p.db.pool.Exec(ctx,
		`UPDATE posts SET title = $1, description = $2 WHERE id = $3`,
		post.Title, post.Description, post.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating post %s: %w", post.ID, err)
	}
	return checkAffected(tag, "post", post.ID)
}

func (p *PostDB) Delete(ctx context.Context, id string) error {
	tag, err := p.db.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting post %s: %w", id, err)
	}
	return checkAffected(tag, "post", id)
}
