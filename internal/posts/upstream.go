package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"postboard/internal/models"

	"golang.org/x/time/rate"
)

// ErrUpstreamNotFound means the directory has no record with the given ID.
var ErrUpstreamNotFound = errors.New("not found in upstream directory")

// Directory is a client for the remote posts directory. Lookups miss the
// local store fall through to it, and post authors are validated against its
// user records. Outbound calls are throttled client side so a burst of local
// cache misses cannot hammer the remote service.
type Directory struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// DirectoryOptions configures a Directory client.
type DirectoryOptions struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewDirectory creates a directory client.
func NewDirectory(opts DirectoryOptions) *Directory {
	return &Directory{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

// upstreamPost is the directory's wire format for a post.
type upstreamPost struct {
	ID       int64  `json:"id"`
	AuthorID int64  `json:"userId"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// FetchPost retrieves a post from the directory.
func (d *Directory) FetchPost(ctx context.Context, id int64) (*models.Post, error) {
	var up upstreamPost
	if err := d.getJSON(ctx, fmt.Sprintf("%s/posts/%d", d.baseURL, id), &up); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.Post{
		ID:        up.ID,
		AuthorID:  up.AuthorID,
		Title:     up.Title,
		Body:      up.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AuthorExists checks whether the directory knows a user with the given ID.
func (d *Directory) AuthorExists(ctx context.Context, authorID int64) (bool, error) {
	var user struct {
		ID int64 `json:"id"`
	}
	err := d.getJSON(ctx, fmt.Sprintf("%s/users/%d", d.baseURL, authorID), &user)
	if errors.Is(err, ErrUpstreamNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.ID == authorID, nil
}

func (d *Directory) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("upstream throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUpstreamNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
