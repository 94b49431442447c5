package models

import "time"

// Post is a user-authored post. AuthorID refers to an account in the upstream
// posts directory, not to a Member; members are API identities, authors are
// content owners.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
