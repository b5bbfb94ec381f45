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

var _ repository.LikeRepository = (*LikeDB)(nil)

// LikeDB is the append-only likes ledger.
type LikeDB struct {
	db *DB
}

const likeColumns = `id, post_id, user_id, is_like, date`

func scanLike(row pgx.Row, e *model.LikeEvent) error {
	return row.Scan(&e.ID, &e.PostID, &e.UserID, &e.Like, &e.Date)
}

func (l *LikeDB) Create(ctx context.Context, event *model.LikeEvent) error {
	event.ID = xid.New().String()
	if event.Date.IsZero() {
		event.Date = l.db.now()
	} else {
		event.Date = event.Date.UTC()
	}

	_, err := l.db.pool.Exec(ctx,
		`INSERT INTO likes (`+likeColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.PostID, event.UserID, event.Like, event.Date,
	)
	if err != nil {
		if mapped := translate(err, "like", "post or user"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("postgres: creating like event: %w", err)
	}
	return nil
}

func (l *LikeDB) GetByID(ctx context.Context, id string) (*model.LikeEvent, error) {
	var event model.LikeEvent
	err := scanLike(l.db.pool.QueryRow(ctx,
		`SELECT `+likeColumns+` FROM likes WHERE id = $1`, id), &event)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("like", id)
		}
		return nil, fmt.Errorf("postgres: getting like event %s: %w", id, err)
	}
	return &event, nil
}

func (l *LikeDB) ListByPost(ctx context.Context, postID string, opts repository.ListOptions) ([]model.LikeEvent, error) {
	opts = opts.Normalize()

	rows, err := l.db.pool.Query(ctx,
		`SELECT `+likeColumns+` FROM likes
		 WHERE post_id = $1
		 ORDER BY id COLLATE "C"
		 LIMIT $2 OFFSET $3`,
		postID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing likes of post %s: %w", postID, err)
	}
	defer rows.Close()

	events := make([]model.LikeEvent, 0, opts.Limit)
	for rows.Next() {
		var event model.LikeEvent
		if err := scanLike(rows, &event); err != nil {
			return nil, fmt.Errorf("postgres: scanning like row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating likes: %w", err)
	}
	return events, nil
}

func (l *LikeDB) Latest(ctx context.Context, userID, postID string) (*model.LikeEvent, error) {
	var event model.LikeEvent
	err := scanLike(l.db.pool.QueryRow(ctx,
		`SELECT `+likeColumns+` FROM likes
		 WHERE user_id = $1 AND post_id = $2
		 ORDER BY id COLLATE "C" DESC
		 LIMIT 1`,
		userID, postID), &event)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("like state for post", postID)
		}
		return nil, fmt.Errorf("postgres: getting latest like of %s on %s: %w", userID, postID, err)
	}
	return &event, nil
}

// Analytics buckets by the UTC calendar day of each event.
func (l *LikeDB) Analytics(ctx context.Context, r repository.DateRange) ([]model.LikeStat, error) {
	rows, err := l.db.pool.Query(ctx,
		`SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		        COUNT(*) FILTER (WHERE is_like),
		        COUNT(*) FILTER (WHERE NOT is_like)
		 FROM likes
		 WHERE (date AT TIME ZONE 'UTC')::date BETWEEN $1::text::date AND $2::text::date
		 GROUP BY day
		 ORDER BY day`,
		r.From, r.To,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: aggregating likes: %w", err)
	}
	defer rows.Close()

	stats := []model.LikeStat{}
	for rows.Next() {
		var s model.LikeStat
		if err := rows.Scan(&s.Date, &s.Likes, &s.Unlikes); err != nil {
			return nil, fmt.Errorf("postgres: scanning analytics row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating analytics: %w", err)
	}
	return stats, nil
}
