package storage

import (
	"context"
	"sort"
	"sync"

	"postboard/internal/models"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. It provides fast access but data is lost on restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	members     map[string]*models.Member // keyed by ID
	tokenHashes map[string]string         // token hash -> member ID
	posts       map[int64]*models.Post
	nextPostID  int64
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		members:     make(map[string]*models.Member),
		tokenHashes: make(map[string]string),
		posts:       make(map[int64]*models.Post),
		nextPostID:  1,
	}
}

// Members returns all registered members
func (m *MemoryStorage) Members(ctx context.Context) ([]*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]*models.Member, 0, len(m.members))
	for _, member := range m.members {
		// Return a copy to prevent external modification
		memberCopy := *member
		members = append(members, &memberCopy)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })

	return members, nil
}

// GetMember retrieves a member by its ID
func (m *MemoryStorage) GetMember(ctx context.Context, id string) (*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	member, exists := m.members[id]
	if !exists {
		return nil, ErrNotFound
	}

	memberCopy := *member
	return &memberCopy, nil
}

// GetMemberByTokenHash retrieves a member by the hash of its bearer token
func (m *MemoryStorage) GetMemberByTokenHash(ctx context.Context, hash string) (*models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.tokenHashes[hash]
	if !exists {
		return nil, ErrNotFound
	}
	member := m.members[id]
	memberCopy := *member
	return &memberCopy, nil
}

// SaveMember stores or updates a member
func (m *MemoryStorage) SaveMember(ctx context.Context, member *models.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop the old hash index entry when the token rotated
	if existing, ok := m.members[member.ID]; ok && existing.TokenHash != member.TokenHash {
		delete(m.tokenHashes, existing.TokenHash)
	}

	memberCopy := *member
	m.members[member.ID] = &memberCopy
	m.tokenHashes[member.TokenHash] = member.ID

	return nil
}

// DeleteMember removes a member by its ID
func (m *MemoryStorage) DeleteMember(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	member, exists := m.members[id]
	if !exists {
		return ErrNotFound
	}

	delete(m.tokenHashes, member.TokenHash)
	delete(m.members, id)
	return nil
}

// Posts returns all stored posts
func (m *MemoryStorage) Posts(ctx context.Context) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		postCopy := *post
		posts = append(posts, &postCopy)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	return posts, nil
}

// GetPost retrieves a post by its ID
func (m *MemoryStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, ErrNotFound
	}

	postCopy := *post
	return &postCopy, nil
}

// PostsByAuthor returns all posts belonging to the given author
func (m *MemoryStorage) PostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]*models.Post, 0)
	for _, post := range m.posts {
		if post.AuthorID == authorID {
			postCopy := *post
			posts = append(posts, &postCopy)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	return posts, nil
}

// SavePost stores or updates a post, assigning an ID when the post has none
func (m *MemoryStorage) SavePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if post.ID == 0 {
		post.ID = m.nextPostID
		m.nextPostID++
	} else if post.ID >= m.nextPostID {
		m.nextPostID = post.ID + 1
	}

	postCopy := *post
	m.posts[post.ID] = &postCopy

	return nil
}

// DeletePost removes a post by its ID
func (m *MemoryStorage) DeletePost(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.posts[id]; !exists {
		return ErrNotFound
	}

	delete(m.posts, id)
	return nil
}

// Ping always succeeds for memory storage
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
