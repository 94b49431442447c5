package storage

import (
	"context"
	"postboard/internal/models"
)

// Storage defines the interface for posts and members persistence.
// It provides a clean abstraction that can be implemented by different
// backends such as in-memory maps or relational databases.
type Storage interface {
	// Members returns all registered members
	Members(ctx context.Context) ([]*models.Member, error)

	// GetMember retrieves a member by its ID
	GetMember(ctx context.Context, id string) (*models.Member, error)

	// GetMemberByTokenHash retrieves a member by the SHA-256 hash of its bearer token
	GetMemberByTokenHash(ctx context.Context, hash string) (*models.Member, error)

	// SaveMember stores or updates a member
	SaveMember(ctx context.Context, member *models.Member) error

	// DeleteMember removes a member
	DeleteMember(ctx context.Context, id string) error

	// Posts returns all stored posts
	Posts(ctx context.Context) ([]*models.Post, error)

	// GetPost retrieves a post by its ID
	GetPost(ctx context.Context, id int64) (*models.Post, error)

	// PostsByAuthor returns all posts belonging to the given author
	PostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error)

	// SavePost stores or updates a post. A post with ID 0 is assigned the
	// next available ID, written back into the post.
	SavePost(ctx context.Context, post *models.Post) error

	// DeletePost removes a post
	DeletePost(ctx context.Context, id int64) error

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (memory, sqlite, postgres)
	Type string `json:"type" yaml:"type"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// MaxOpenConns bounds the database connection pool
	MaxOpenConns int `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
}
