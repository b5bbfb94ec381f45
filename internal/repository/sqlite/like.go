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

var _ repository.LikeRepository = (*LikeDB)(nil)

// LikeDB is the append-only likes ledger. It exposes no UPDATE or DELETE.
type LikeDB struct {
	db *DB
}

const likeColumns = `id, post_id, user_id, is_like, date`

func scanLike(s scanner, e *model.LikeEvent) error {
	return s.Scan(&e.ID, &e.PostID, &e.UserID, &e.Like, &e.Date)
}

// Create appends an event. Date defaults to now; a preset Date is kept
// (normalized to UTC) so history can be imported or back-dated in tests.
func (l *LikeDB) Create(ctx context.Context, event *model.LikeEvent) error {
	event.ID = xid.New().String()
	if event.Date.IsZero() {
		event.Date = l.db.now()
	} else {
		event.Date = event.Date.UTC()
	}

	_, err := l.db.conn.ExecContext(ctx,
		`INSERT INTO likes (`+likeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.PostID,
		event.UserID,
		event.Like,
		event.Date,
	)
	if err != nil {
		if mapped := translate(err, "like", "post or user"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("sqlite: creating like event: %w", err)
	}
	return nil
}

func (l *LikeDB) GetByID(ctx context.Context, id string) (*model.LikeEvent, error) {
	var event model.LikeEvent
	err := scanLike(l.db.conn.QueryRowContext(ctx,
		`SELECT `+likeColumns+` FROM likes WHERE id = ?`, id,
	), &event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("like", id)
		}
		return nil, fmt.Errorf("sqlite: getting like event %s: %w", id, err)
	}
	return &event, nil
}

// ListByPost returns the ledger of one post in append order.
func (l *LikeDB) ListByPost(ctx context.Context, postID string, opts repository.ListOptions) ([]model.LikeEvent, error) {
	opts = opts.Normalize()

	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT `+likeColumns+` FROM likes
		 WHERE post_id = ?
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		postID,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes of post %s: %w", postID, err)
	}
	defer rows.Close()

	events := make([]model.LikeEvent, 0, opts.Limit)
	for rows.Next() {
		var event model.LikeEvent
		if err := scanLike(rows, &event); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return events, nil
}

// Latest returns the newest event for the pair. xid IDs grow with insertion,
// so the highest ID is the last append.
func (l *LikeDB) Latest(ctx context.Context, userID, postID string) (*model.LikeEvent, error) {
	var event model.LikeEvent
	err := scanLike(l.db.conn.QueryRowContext(ctx,
		`SELECT `+likeColumns+` FROM likes
		 WHERE user_id = ? AND post_id = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		userID, postID,
	), &event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("like state for post", postID)
		}
		return nil, fmt.Errorf("sqlite: getting latest like of %s on %s: %w", userID, postID, err)
	}
	return &event, nil
}

// Analytics buckets events by the date part of the stored timestamp. Times
// are written in UTC, so the first ten characters are the UTC calendar day.
func (l *LikeDB) Analytics(ctx context.Context, r repository.DateRange) ([]model.LikeStat, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT substr(date, 1, 10) AS day,
		        SUM(CASE WHEN is_like THEN 1 ELSE 0 END),
		        SUM(CASE WHEN is_like THEN 0 ELSE 1 END)
		 FROM likes
		 WHERE substr(date, 1, 10) BETWEEN ? AND ?
		 GROUP BY day
		 ORDER BY day`,
		r.From, r.To,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating likes: %w", err)
	}
	defer rows.Close()

	stats := []model.LikeStat{}
	for rows.Next() {
		var s model.LikeStat
		if err := rows.Scan(&s.Date, &s.Likes, &s.Unlikes); err != nil {
			return nil, fmt.Errorf("sqlite: scanning analytics row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating analytics: %w", err)
	}
	return stats, nil
}
