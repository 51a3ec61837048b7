// Package invitation implements the sharing invitation workflow: listing,
// responding, cancelling and revoking, with list consistency kept by
// refetching after every mutation instead of patching local state.
package invitation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// API is the slice of the base client the invitation workflow needs.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// ErrAlreadyRevoked is returned when revoking an invitation the server has
// already revoked; callers show a neutral notice instead of an error.
var ErrAlreadyRevoked = errors.New("invitation already revoked")

// ErrActionNotAllowed is returned when a transition is requested from a
// status that does not permit it. The check is local; the server is never
// called with a known-invalid transition.
var ErrActionNotAllowed = errors.New("action not allowed for invitation status")

// Response is the recipient's answer to a pending invitation.
type Response string

const (
	ResponseAccepted Response = "accepted"
	ResponseRejected Response = "rejected"
)

// Service orchestrates the invitation workflow over the API client.
type Service struct {
	api API
	now func() time.Time
}

// NewService creates an invitation Service.
func NewService(api API) *Service {
	return &Service{api: api, now: time.Now}
}

// Pending returns invitations addressed to the current user, as reported by
// the server (unfiltered).
func (s *Service) Pending(ctx context.Context) ([]*Invitation, error) {
	return s.list(ctx, "/invitations/pending")
}

// Sent returns invitations the current user has sent.
func (s *Service) Sent(ctx context.Context) ([]*Invitation, error) {
	return s.list(ctx, "/invitations/sent")
}

func (s *Service) list(ctx context.Context, path string) ([]*Invitation, error) {
	raw, err := s.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var invs []*Invitation
	if err := json.Unmarshal(raw, &invs); err != nil {
		return nil, fmt.Errorf("decode invitation list: %w", err)
	}
	return invs, nil
}

// ActivePending returns the pending list with revoked, cancelled and expired
// invitations filtered out. The server does not pre-filter, and it may not
// have transitioned past-deadline invitations yet, so expiry is checked
// locally as well.
func (s *Service) ActivePending(ctx context.Context) ([]*Invitation, error) {
	invs, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	return FilterActive(invs, s.now()), nil
}

// FilterActive drops invitations whose status is revoked, cancelled or
// expired, or whose deadline has passed.
func FilterActive(invs []*Invitation, now time.Time) []*Invitation {
	active := make([]*Invitation, 0, len(invs))
	for _, inv := range invs {
		switch inv.Status {
		case StatusRevoked, StatusCancelled, StatusExpired:
			continue
		}
		if inv.IsExpired(now) {
			continue
		}
		active = append(active, inv)
	}
	return active
}

// respondRequest always serializes response_note, as null when absent.
type respondRequest struct {
	Response     Response `json:"response"`
	ResponseNote *string  `json:"response_note"`
}

// Lists bundles the refetched pending and sent lists returned after a
// mutation.
type Lists struct {
	Pending []*Invitation
	Sent    []*Invitation
}

// Respond accepts or rejects a pending invitation and refetches both lists.
// There is no optimistic local mutation: consistency comes from the reload.
func (s *Service) Respond(ctx context.Context, id string, response Response, note string) (*Lists, error) {
	if response != ResponseAccepted && response != ResponseRejected {
		return nil, fmt.Errorf("invalid response %q", response)
	}
	req := respondRequest{Response: response}
	if note != "" {
		req.ResponseNote = &note
	}
	if _, err := s.api.Post(ctx, "/invitations/"+id+"/respond", req); err != nil {
		return nil, err
	}
	return s.reload(ctx)
}

// Cancel withdraws a pending invitation the current user sent.
func (s *Service) Cancel(ctx context.Context, inv *Invitation) (*Lists, error) {
	if !Allows(inv, ActionCancel, s.now()) {
		return nil, fmt.Errorf("cancel invitation %s in status %s: %w", inv.ID, inv.Status, ErrActionNotAllowed)
	}
	if _, err := s.api.Delete(ctx, "/invitations/"+inv.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx)
}

// Revoke withdraws access previously granted through an accepted
// family-history share. Revoking an already-revoked invitation
// short-circuits locally with ErrAlreadyRevoked.
func (s *Service) Revoke(ctx context.Context, inv *Invitation) (*Lists, error) {
	if inv.Status == StatusRevoked {
		return nil, ErrAlreadyRevoked
	}
	if !Allows(inv, ActionRevoke, s.now()) {
		return nil, fmt.Errorf("revoke invitation %s in status %s: %w", inv.ID, inv.Status, ErrActionNotAllowed)
	}
	if _, err := s.api.Post(ctx, "/invitations/"+inv.ID+"/revoke", nil); err != nil {
		return nil, err
	}
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) (*Lists, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	sent, err := s.Sent(ctx)
	if err != nil {
		return nil, err
	}
	return &Lists{Pending: pending, Sent: sent}, nil
}

// Summary fetches the aggregate invitation counts.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	raw, err := s.api.Get(ctx, "/invitations/summary")
	if err != nil {
		return nil, err
	}
	var sum Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil, fmt.Errorf("decode invitation summary: %w", err)
	}
	return &sum, nil
}

// Cleanup asks the server to purge expired and dismissed invitations.
func (s *Service) Cleanup(ctx context.Context) error {
	_, err := s.api.Post(ctx, "/invitations/cleanup", nil)
	return err
}
