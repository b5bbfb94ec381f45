// Package model defines the data structures used throughout the application.
// Go favours composition over inheritance: there is one canonical record per
// entity, and narrower views are produced by projection functions.
package model

import "time"

// User is the canonical user record. HashedPassword never leaves the
// process: it has no JSON representation.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Created        time.Time `json:"created"`
	LoggedIn       time.Time `json:"logged_in"`
	LastActivity   time.Time `json:"last_activity"`
}

// UserPublic is the projection returned by registration, update and the
// public user listing.
type UserPublic struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
}

// UserActivity extends the public projection with the bookkeeping timestamps.
type UserActivity struct {
	UserPublic
	LoggedIn     time.Time `json:"logged_in"`
	LastActivity time.Time `json:"last_activity"`
}

// Public projects u onto its public-safe view.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Created: u.Created,
	}
}

// Activity projects u onto its activity view.
func (u *User) Activity() UserActivity {
	return UserActivity{
		UserPublic:   u.Public(),
		LoggedIn:     u.LoggedIn,
		LastActivity: u.LastActivity,
	}
}

// PublicUsers maps Public over a page of users.
func PublicUsers(users []User) []UserPublic {
	out := make([]UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

// ActivityUsers maps Activity over a page of users.
func ActivityUsers(users []User) []UserActivity {
	out := make([]UserActivity, 0, len(users))
	for i := range users {
		out = append(out, users[i].Activity())
	}
	return out
}
