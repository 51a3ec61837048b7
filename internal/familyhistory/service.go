// Package familyhistory wraps the family-history sharing endpoints: the
// user's own members, records shared with and by them, per-member shares,
// and the bulk invitation call.
package familyhistory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medrec/medrec/internal/client"
)

// API is the slice of the base client this service needs.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// Service wraps the family-history sharing endpoints.
type Service struct {
	api API
}

// NewService creates a family-history sharing Service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Mine returns all family members visible to the user: their own plus those
// shared with them.
func (s *Service) Mine(ctx context.Context) ([]*FamilyMember, error) {
	return s.listMembers(ctx, "/family-history-sharing/mine")
}

// MyOwn returns only the family members the user owns.
func (s *Service) MyOwn(ctx context.Context) ([]*FamilyMember, error) {
	return s.listMembers(ctx, "/family-history-sharing/my-own")
}

// SharedWithMe returns family members other users have shared with the user.
func (s *Service) SharedWithMe(ctx context.Context) ([]*FamilyMember, error) {
	return s.listMembers(ctx, "/family-history-sharing/shared-with-me")
}

// SharedByMe returns the user's family members that are currently shared out.
func (s *Service) SharedByMe(ctx context.Context) ([]*FamilyMember, error) {
	return s.listMembers(ctx, "/family-history-sharing/shared-by-me")
}

func (s *Service) listMembers(ctx context.Context, path string) ([]*FamilyMember, error) {
	raw, err := s.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var members []*FamilyMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("decode family member list: %w", err)
	}
	return members, nil
}

// Details returns one family member with conditions included. A missing
// member yields (nil, nil): detail panes treat absence as empty, not as a
// failure.
func (s *Service) Details(ctx context.Context, memberID string) (*FamilyMember, error) {
	raw, err := s.api.Get(ctx, "/family-history-sharing/"+memberID+"/details")
	if err != nil {
		if client.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var member FamilyMember
	if err := json.Unmarshal(raw, &member); err != nil {
		return nil, fmt.Errorf("decode family member: %w", err)
	}
	return &member, nil
}

// Shares lists the active shares for one family member.
func (s *Service) Shares(ctx context.Context, memberID string) ([]*Share, error) {
	raw, err := s.api.Get(ctx, "/family-history-sharing/"+memberID+"/shares")
	if err != nil {
		return nil, err
	}
	var shares []*Share
	if err := json.Unmarshal(raw, &shares); err != nil {
		return nil, fmt.Errorf("decode share list: %w", err)
	}
	return shares, nil
}

// RevokeShare removes one recipient's access to a family member.
func (s *Service) RevokeShare(ctx context.Context, memberID, userID string) error {
	_, err := s.api.Delete(ctx, "/family-history-sharing/"+memberID+"/shares/"+userID)
	return err
}

// BulkInvite invites one recipient to several family members. The returned
// report is partial-success by design; err is non-nil only when the request
// itself failed.
func (s *Service) BulkInvite(ctx context.Context, req *BulkInviteRequest) (*BulkInviteResult, error) {
	if len(req.FamilyMemberIDs) == 0 {
		return nil, fmt.Errorf("family_member_ids is required")
	}
	if req.SharedWithIdentifier == "" {
		return nil, fmt.Errorf("shared_with_identifier is required")
	}
	if req.PermissionLevel == "" {
		req.PermissionLevel = PermissionView
	}
	if req.PermissionLevel != PermissionView && req.PermissionLevel != PermissionEdit {
		return nil, fmt.Errorf("invalid permission_level: %s", req.PermissionLevel)
	}

	raw, err := s.api.Post(ctx, "/family-history-sharing/bulk-invite", req)
	if err != nil {
		return nil, err
	}
	var result BulkInviteResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode bulk invite result: %w", err)
	}
	return &result, nil
}
