// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Rich error information with codes for programmatic handling
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// PostResponse is the public view of a post.
type PostResponse struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromPost populates the response from a stored post.
func (pr *PostResponse) FromPost(post *Post) {
	pr.ID = post.ID
	pr.AuthorID = post.AuthorID
	pr.Title = post.Title
	pr.Body = post.Body
	pr.CreatedAt = post.CreatedAt
	pr.UpdatedAt = post.UpdatedAt
}

type ListPostsResponse struct {
	Posts      []PostResponse `json:"posts"`
	TotalCount int            `json:"total_count"`
}

// MemberResponse is the metadata-only view of a member (no raw token, no hash).
type MemberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	IsAdmin   bool      `json:"is_admin"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromMember populates the response from a stored member.
func (mr *MemberResponse) FromMember(m *Member) {
	mr.ID = m.ID
	mr.Name = m.Name
	mr.Prefix = m.Prefix
	mr.IsAdmin = m.IsAdmin
	mr.Enabled = m.Enabled
	mr.CreatedAt = m.CreatedAt
	mr.UpdatedAt = m.UpdatedAt
}

// CreateMemberResponse includes the raw bearer token. It is returned exactly
// once; only the hash is stored.
type CreateMemberResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	Prefix    string    `json:"prefix"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// RotateTokenResponse carries a freshly minted replacement token.
type RotateTokenResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Prefix    string    `json:"prefix"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListMembersResponse struct {
	Members    []MemberResponse `json:"members"`
	TotalCount int              `json:"total_count"`
}

// ErrorResponse provides structured error information with debugging context.
//
// Error Handling Design:
// - Consistent error structure across all endpoints
// - Machine-readable error codes for programmatic handling
// - Human-readable messages for user interfaces
// - Timestamps for debugging and audit trails
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
)

// Standard HTTP Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
// - Machine-readable for client error handling
const (
	ErrorCodeNotFound             = "NOT_FOUND"              // 404: Resource doesn't exist
	ErrorCodeBadRequest           = "BAD_REQUEST"            // 400: Invalid request format
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"        // 400: Invalid request data
	ErrorCodeValidation           = "VALIDATION_ERROR"       // 422: Input validation failed
	ErrorCodeInternalError        = "INTERNAL_ERROR"         // 500: Server-side error
	ErrorCodeUnauthorized         = "UNAUTHORIZED"           // 401: Authentication required
	ErrorCodeForbidden            = "FORBIDDEN"              // 403: Permission denied
	ErrorCodeConflict             = "CONFLICT"               // 409: Resource conflict
	ErrorCodeCooldownActive       = "COOLDOWN_ACTIVE"        // 429: Rate limited, serving a penalty
	ErrorCodeRateStoreUnavailable = "RATE_STORE_UNAVAILABLE" // 503: Rate counter store unreachable
	ErrorCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"    // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}
