package model

import "time"

// LikeEvent is one row of the append-only like ledger. Like is true for a
// like and false for an unlike; rows are never updated.
type LikeEvent struct {
	ID     string    `json:"id"`
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id"`
	Like   bool      `json:"like"`
	Date   time.Time `json:"date"`
}

// LikeStat is one day of the analytics aggregate. Date is a UTC calendar
// date formatted as YYYY-MM-DD.
type LikeStat struct {
	Likes   int    `json:"likes"`
	Unlikes int    `json:"unlikes"`
	Date    string `json:"date"`
}

// LikeState is the derived current state of a (user, post) pair: the
// latest event in the ledger for that pair.
type LikeState struct {
	UserID  string    `json:"user_id"`
	PostID  string    `json:"post_id"`
	Liked   bool      `json:"liked"`
	EventID string    `json:"event_id"`
	Date    time.Time `json:"date"`
}

// StateOf derives the pair state from its latest event.
func StateOf(latest *LikeEvent) LikeState {
	return LikeState{
		UserID:  latest.UserID,
		PostID:  latest.PostID,
		Liked:   latest.Like,
		EventID: latest.ID,
		Date:    latest.Date,
	}
}
