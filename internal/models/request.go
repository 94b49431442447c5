// Package models - API request types and input validation.
// This file defines all incoming API request structures with validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input data for consistent processing (trimmed strings)
// - Separate validation from normalization for clear error reporting
package models

import (
	"errors"
	"fmt"
	"strings"
)

// MaxPostTitleLength and MaxPostBodyLength bound post content size.
const (
	MaxPostTitleLength = 256
	MaxPostBodyLength  = 64 * 1024
)

// CreatePostRequest represents a request to create a post.
type CreatePostRequest struct {
	AuthorID int64  `json:"author_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Normalize trims whitespace from text fields.
func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
}

// Validate checks the request for missing or out-of-range fields.
func (r *CreatePostRequest) Validate() error {
	if r.AuthorID <= 0 {
		return errors.New("author_id must be positive")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if len(r.Title) > MaxPostTitleLength {
		return fmt.Errorf("title exceeds %d characters", MaxPostTitleLength)
	}
	if r.Body == "" {
		return errors.New("body is required")
	}
	if len(r.Body) > MaxPostBodyLength {
		return fmt.Errorf("body exceeds %d bytes", MaxPostBodyLength)
	}
	return nil
}

// UpdatePostRequest represents a partial update to a post. Nil fields are
// left unchanged.
type UpdatePostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (r *UpdatePostRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Body != nil {
		b := strings.TrimSpace(*r.Body)
		r.Body = &b
	}
}

func (r *UpdatePostRequest) Validate() error {
	if r.Title == nil && r.Body == nil {
		return errors.New("at least one of title or body is required")
	}
	if r.Title != nil {
		if *r.Title == "" {
			return errors.New("title cannot be empty")
		}
		if len(*r.Title) > MaxPostTitleLength {
			return fmt.Errorf("title exceeds %d characters", MaxPostTitleLength)
		}
	}
	if r.Body != nil {
		if *r.Body == "" {
			return errors.New("body cannot be empty")
		}
		if len(*r.Body) > MaxPostBodyLength {
			return fmt.Errorf("body exceeds %d bytes", MaxPostBodyLength)
		}
	}
	return nil
}

// CreateMemberRequest represents an admin request to provision a new member.
type CreateMemberRequest struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

func (r *CreateMemberRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateMemberRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 128 {
		return errors.New("name exceeds 128 characters")
	}
	return nil
}

// UpdateMemberRequest represents a partial update to a member. Nil fields are
// left unchanged.
type UpdateMemberRequest struct {
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"is_admin"`
	Enabled *bool   `json:"enabled"`
}

func (r *UpdateMemberRequest) Validate() error {
	if r.Name == nil && r.IsAdmin == nil && r.Enabled == nil {
		return errors.New("at least one field is required")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}
