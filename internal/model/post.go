package model

import "time"

// Post is owned by exactly one user. Only Title and Description change
// after creation.
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}
