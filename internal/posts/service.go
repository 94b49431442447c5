// Package posts implements the posts domain: CRUD over local storage with
// fall-through lookup to a remote directory for posts and author records the
// local store does not have yet.
package posts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"postboard/internal/models"
	"postboard/internal/storage"
)

// DirectoryClient is the slice of the remote directory the service needs.
type DirectoryClient interface {
	FetchPost(ctx context.Context, id int64) (*models.Post, error)
	AuthorExists(ctx context.Context, authorID int64) (bool, error)
}

// Service handles posts business logic
type Service struct {
	storage   storage.Storage
	directory DirectoryClient // nil when upstream lookup is disabled
}

// NewService creates a new posts service. A nil directory disables upstream
// fall-through and author validation.
func NewService(storage storage.Storage, directory DirectoryClient) *Service {
	return &Service{
		storage:   storage,
		directory: directory,
	}
}

// Create stores a new post after validating its author against the directory.
func (s *Service) Create(ctx context.Context, req *models.CreatePostRequest) (*models.PostResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid post request", err)
	}

	if s.directory != nil {
		exists, err := s.directory.AuthorExists(ctx, req.AuthorID)
		if err != nil {
			// The directory being down should not block writes; log and
			// accept the author as claimed.
			slog.Warn("Author validation unavailable, accepting author",
				"author_id", req.AuthorID,
				"error", err,
			)
		} else if !exists {
			return nil, NewAuthorNotFoundError(req.AuthorID)
		}
	}

	now := time.Now().UTC()
	post := &models.Post{
		AuthorID:  req.AuthorID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.SavePost(ctx, post); err != nil {
		return nil, NewInternalError("failed to save post", err)
	}

	resp := &models.PostResponse{}
	resp.FromPost(post)
	return resp, nil
}

// Get retrieves a post, falling through to the upstream directory when the
// local store does not have it. Directory hits are cached locally.
func (s *Service) Get(ctx context.Context, id int64) (*models.PostResponse, error) {
	post, err := s.storage.GetPost(ctx, id)
	if err == nil {
		resp := &models.PostResponse{}
		resp.FromPost(post)
		return resp, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, NewInternalError("failed to get post", err)
	}

	if s.directory == nil {
		return nil, NewPostNotFoundError(id)
	}

	post, err = s.directory.FetchPost(ctx, id)
	if errors.Is(err, ErrUpstreamNotFound) {
		return nil, NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, NewInternalError("failed to fetch post from directory", err)
	}

	// Cache the directory copy. A failure here only costs the next lookup
	// another round trip.
	if err := s.storage.SavePost(ctx, post); err != nil {
		slog.Warn("Failed to cache directory post",
			"post_id", post.ID,
			"error", err,
		)
	}

	resp := &models.PostResponse{}
	resp.FromPost(post)
	return resp, nil
}

// List returns all locally stored posts
func (s *Service) List(ctx context.Context) (*models.ListPostsResponse, error) {
	stored, err := s.storage.Posts(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list posts", err)
	}
	return buildListResponse(stored), nil
}

// ListByAuthor returns all locally stored posts by one author
func (s *Service) ListByAuthor(ctx context.Context, authorID int64) (*models.ListPostsResponse, error) {
	stored, err := s.storage.PostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, NewInternalError("failed to list posts", err)
	}
	return buildListResponse(stored), nil
}

// Update applies a partial update to a post. Nil request fields are left
// unchanged.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdatePostRequest) (*models.PostResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid post update", err)
	}

	post, err := s.storage.GetPost(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, NewInternalError("failed to get post", err)
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.storage.SavePost(ctx, post); err != nil {
		return nil, NewInternalError("failed to save post", err)
	}

	resp := &models.PostResponse{}
	resp.FromPost(post)
	return resp, nil
}

// Delete removes a post from local storage
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.storage.DeletePost(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return NewPostNotFoundError(id)
	}
	if err != nil {
		return NewInternalError("failed to delete post", err)
	}
	return nil
}

func buildListResponse(stored []*models.Post) *models.ListPostsResponse {
	resp := &models.ListPostsResponse{
		Posts:      make([]models.PostResponse, 0, len(stored)),
		TotalCount: len(stored),
	}
	for _, post := range stored {
		pr := models.PostResponse{}
		pr.FromPost(post)
		resp.Posts = append(resp.Posts, pr)
	}
	return resp
}
