package storage

import (
	"context"
	"errors"
	"fmt"

	"postboard/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements the Storage interface using PostgreSQL.
// Intended for deployments where multiple instances share one database.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS members (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	token_hash TEXT NOT NULL UNIQUE,
	prefix     TEXT NOT NULL,
	is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
	id         BIGSERIAL PRIMARY KEY,
	author_id  BIGINT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
`

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures the schema exists.
func NewPostgresStorage(ctx context.Context, config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Members returns all registered members
func (ps *PostgresStorage) Members(ctx context.Context) ([]*models.Member, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		err := rows.Scan(&member.ID, &member.Name, &member.TokenHash, &member.Prefix,
			&member.IsAdmin, &member.Enabled, &member.CreatedAt, &member.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// GetMember retrieves a member by its ID
func (ps *PostgresStorage) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return ps.getMember(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members WHERE id = $1`, id)
}

// GetMemberByTokenHash retrieves a member by the hash of its bearer token
func (ps *PostgresStorage) GetMemberByTokenHash(ctx context.Context, hash string) (*models.Member, error) {
	return ps.getMember(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members WHERE token_hash = $1`, hash)
}

func (ps *PostgresStorage) getMember(ctx context.Context, query string, arg interface{}) (*models.Member, error) {
	member := &models.Member{}
	err := ps.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID, &member.Name, &member.TokenHash, &member.Prefix,
		&member.IsAdmin, &member.Enabled, &member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	return member, nil
}

// SaveMember stores or updates a member
func (ps *PostgresStorage) SaveMember(ctx context.Context, member *models.Member) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO members (id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			token_hash = EXCLUDED.token_hash,
			prefix = EXCLUDED.prefix,
			is_admin = EXCLUDED.is_admin,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at`,
		member.ID, member.Name, member.TokenHash, member.Prefix,
		member.IsAdmin, member.Enabled, member.CreatedAt, member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// DeleteMember removes a member by its ID
func (ps *PostgresStorage) DeleteMember(ctx context.Context, id string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Posts returns all stored posts
func (ps *PostgresStorage) Posts(ctx context.Context) ([]*models.Post, error) {
	return ps.queryPosts(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts ORDER BY id`)
}

// GetPost retrieves a post by its ID
func (ps *PostgresStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	post := &models.Post{}
	err := ps.pool.QueryRow(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts WHERE id = $1`, id).
		Scan(&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return post, nil
}

// PostsByAuthor returns all posts belonging to the given author
func (ps *PostgresStorage) PostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return ps.queryPosts(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts WHERE author_id = $1 ORDER BY id`,
		authorID)
}

// SavePost stores or updates a post, assigning an ID when the post has none
func (ps *PostgresStorage) SavePost(ctx context.Context, post *models.Post) error {
	if post.ID == 0 {
		err := ps.pool.QueryRow(ctx,
			`INSERT INTO posts (author_id, title, body, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			post.AuthorID, post.Title, post.Body, post.CreatedAt, post.UpdatedAt).
			Scan(&post.ID)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return nil
	}

	_, err := ps.pool.Exec(ctx,
		`INSERT INTO posts (id, author_id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			author_id = EXCLUDED.author_id,
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`,
		post.ID, post.AuthorID, post.Title, post.Body, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

// DeletePost removes a post by its ID
func (ps *PostgresStorage) DeletePost(ctx context.Context, id int64) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the storage connection
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

func (ps *PostgresStorage) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := ps.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post := &models.Post{}
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
