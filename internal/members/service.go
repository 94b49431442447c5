// Package members implements member lifecycle management: provisioning,
// token rotation, and administrative updates. Raw bearer tokens exist only in
// the responses of Create and RotateToken; storage holds hashes.
package members

import (
	"context"
	"errors"
	"time"

	"postboard/internal/models"
	"postboard/internal/storage"
)

// Service handles member management business logic
type Service struct {
	storage storage.Storage
}

// NewService creates a new members service with the given storage backend
func NewService(storage storage.Storage) *Service {
	return &Service{
		storage: storage,
	}
}

// Create provisions a new member and mints its bearer token. The raw token
// appears only in the returned response.
func (s *Service) Create(ctx context.Context, req *models.CreateMemberRequest) (*models.CreateMemberResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid member request", err)
	}

	token, err := models.GenerateToken()
	if err != nil {
		return nil, NewInternalError("failed to generate token", err)
	}

	member := models.NewMember(models.NewMemberID(), req.Name, token, req.IsAdmin)
	if err := s.storage.SaveMember(ctx, member); err != nil {
		return nil, NewInternalError("failed to save member", err)
	}

	return &models.CreateMemberResponse{
		ID:        member.ID,
		Name:      member.Name,
		Token:     token,
		Prefix:    member.Prefix,
		IsAdmin:   member.IsAdmin,
		CreatedAt: member.CreatedAt,
	}, nil
}

// Get retrieves a member's metadata by ID
func (s *Service) Get(ctx context.Context, id string) (*models.MemberResponse, error) {
	member, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewMemberNotFoundError(id)
	}
	if err != nil {
		return nil, NewInternalError("failed to get member", err)
	}

	resp := &models.MemberResponse{}
	resp.FromMember(member)
	return resp, nil
}

// List returns metadata for all members
func (s *Service) List(ctx context.Context) (*models.ListMembersResponse, error) {
	members, err := s.storage.Members(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list members", err)
	}

	resp := &models.ListMembersResponse{
		Members:    make([]models.MemberResponse, 0, len(members)),
		TotalCount: len(members),
	}
	for _, member := range members {
		mr := models.MemberResponse{}
		mr.FromMember(member)
		resp.Members = append(resp.Members, mr)
	}
	return resp, nil
}

// Update applies a partial update to a member. Nil request fields are left
// unchanged.
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateMemberRequest) (*models.MemberResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError("invalid member update", err)
	}

	member, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewMemberNotFoundError(id)
	}
	if err != nil {
		return nil, NewInternalError("failed to get member", err)
	}

	if req.Name != nil {
		member.Name = *req.Name
	}
	if req.IsAdmin != nil {
		member.IsAdmin = *req.IsAdmin
	}
	if req.Enabled != nil {
		member.Enabled = *req.Enabled
	}
	member.UpdatedAt = time.Now().UTC()

	if err := s.storage.SaveMember(ctx, member); err != nil {
		return nil, NewInternalError("failed to save member", err)
	}

	resp := &models.MemberResponse{}
	resp.FromMember(member)
	return resp, nil
}

// Delete removes a member. Its token stops authenticating immediately.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.storage.DeleteMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return NewMemberNotFoundError(id)
	}
	if err != nil {
		return NewInternalError("failed to delete member", err)
	}
	return nil
}

// RotateToken mints a replacement bearer token for a member. The old token
// stops authenticating as soon as the new hash is stored.
func (s *Service) RotateToken(ctx context.Context, id string) (*models.RotateTokenResponse, error) {
	member, err := s.storage.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, NewMemberNotFoundError(id)
	}
	if err != nil {
		return nil, NewInternalError("failed to get member", err)
	}

	token, err := models.GenerateToken()
	if err != nil {
		return nil, NewInternalError("failed to generate token", err)
	}

	member.TokenHash = models.HashToken(token)
	member.Prefix = token[:8]
	member.UpdatedAt = time.Now().UTC()

	if err := s.storage.SaveMember(ctx, member); err != nil {
		return nil, NewInternalError("failed to save member", err)
	}

	return &models.RotateTokenResponse{
		ID:        member.ID,
		Token:     token,
		Prefix:    member.Prefix,
		UpdatedAt: member.UpdatedAt,
	}, nil
}

// Bootstrap seeds an admin member from a pre-shared token when no member with
// that token exists yet. Used at startup so a fresh deployment can reach the
// admin endpoints.
func (s *Service) Bootstrap(ctx context.Context, rawToken string) (*models.Member, error) {
	hash := models.HashToken(rawToken)

	existing, err := s.storage.GetMemberByTokenHash(ctx, hash)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, NewInternalError("failed to check bootstrap token", err)
	}

	member := models.NewMember(models.NewMemberID(), "bootstrap-admin", rawToken, true)
	if err := s.storage.SaveMember(ctx, member); err != nil {
		return nil, NewInternalError("failed to save bootstrap member", err)
	}
	return member, nil
}
