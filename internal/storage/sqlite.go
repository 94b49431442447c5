package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postboard/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface using SQLite via the pure-Go
// modernc.org/sqlite driver. Suitable for single-instance deployments that
// need persistence without running a database server.
type SQLiteStorage struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS members (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	token_hash TEXT NOT NULL UNIQUE,
	prefix     TEXT NOT NULL,
	is_admin   INTEGER NOT NULL DEFAULT 0,
	enabled    INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id  INTEGER NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
`

// NewSQLiteStorage creates a new SQLite storage instance and ensures the schema exists.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Members returns all registered members
func (ss *SQLiteStorage) Members(ctx context.Context) ([]*models.Member, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// GetMember retrieves a member by its ID
func (ss *SQLiteStorage) GetMember(ctx context.Context, id string) (*models.Member, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members WHERE id = ?`, id)
	return scanMemberRow(row)
}

// GetMemberByTokenHash retrieves a member by the hash of its bearer token
func (ss *SQLiteStorage) GetMemberByTokenHash(ctx context.Context, hash string) (*models.Member, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at
		 FROM members WHERE token_hash = ?`, hash)
	return scanMemberRow(row)
}

// SaveMember stores or updates a member
func (ss *SQLiteStorage) SaveMember(ctx context.Context, member *models.Member) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO members (id, name, token_hash, prefix, is_admin, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			token_hash = excluded.token_hash,
			prefix = excluded.prefix,
			is_admin = excluded.is_admin,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		member.ID, member.Name, member.TokenHash, member.Prefix,
		member.IsAdmin, member.Enabled, member.CreatedAt, member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// DeleteMember removes a member by its ID
func (ss *SQLiteStorage) DeleteMember(ctx context.Context, id string) error {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Posts returns all stored posts
func (ss *SQLiteStorage) Posts(ctx context.Context) ([]*models.Post, error) {
	return ss.queryPosts(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts ORDER BY id`)
}

// GetPost retrieves a post by its ID
func (ss *SQLiteStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts WHERE id = ?`, id)

	post := &models.Post{}
	err := row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return post, nil
}

// PostsByAuthor returns all posts belonging to the given author
func (ss *SQLiteStorage) PostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return ss.queryPosts(ctx,
		`SELECT id, author_id, title, body, created_at, updated_at FROM posts WHERE author_id = ? ORDER BY id`,
		authorID)
}

// SavePost stores or updates a post, assigning an ID when the post has none
func (ss *SQLiteStorage) SavePost(ctx context.Context, post *models.Post) error {
	if post.ID == 0 {
		result, err := ss.db.ExecContext(ctx,
			`INSERT INTO posts (author_id, title, body, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			post.AuthorID, post.Title, post.Body, post.CreatedAt, post.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read post id: %w", err)
		}
		post.ID = id
		return nil
	}

	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			author_id = excluded.author_id,
			title = excluded.title,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		post.ID, post.AuthorID, post.Title, post.Body, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

// DeletePost removes a post by its ID
func (ss *SQLiteStorage) DeletePost(ctx context.Context, id int64) error {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

func (ss *SQLiteStorage) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := ss.db.QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(s rowScanner) (*models.Member, error) {
	member := &models.Member{}
	err := s.Scan(&member.ID, &member.Name, &member.TokenHash, &member.Prefix,
		&member.IsAdmin, &member.Enabled, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	return member, nil
}

func scanMemberRow(row *sql.Row) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(&member.ID, &member.Name, &member.TokenHash, &member.Prefix,
		&member.IsAdmin, &member.Enabled, &member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	return member, nil
}
