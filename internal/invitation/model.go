package invitation

import "time"

// Status is the server-owned invitation lifecycle state. The set is closed;
// the client only triggers transitions, it never computes them (except the
// local expiry check, since the server may lag behind the clock).
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusRevoked   Status = "revoked"
)

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusExpired, StatusCancelled, StatusRevoked:
		return true
	}
	return false
}

// Type identifies what an invitation grants access to.
type Type string

const (
	TypeFamilyHistoryShare Type = "family_history_share"
	TypePatientShare       Type = "patient_share"
	TypeFamilyJoin         Type = "family_join"
)

// Invitation is the client-side copy of a server-owned invitation.
type Invitation struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	InvitationType Type                   `json:"invitation_type"`
	Status         Status                 `json:"status"`
	SentBy         string                 `json:"sent_by"`
	SentTo         string                 `json:"sent_to"`
	ContextDetails map[string]interface{} `json:"context_details,omitempty"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// IsExpired reports whether the invitation's deadline has passed, regardless
// of the status the server last reported.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

// Action is something a user may do to an invitation.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
	ActionRevoke Action = "revoke"
)

// AllowedActions returns the actions valid for an invitation in its current
// state. Cancel is a sender action on pending invitations; revoke is a
// sender action on accepted family-history shares. UI and CLI dispatch
// through this instead of re-deriving the conditions.
func AllowedActions(inv *Invitation, now time.Time) []Action {
	if inv.IsExpired(now) {
		return nil
	}
	switch inv.Status {
	case StatusPending:
		return []Action{ActionAccept, ActionReject, ActionCancel}
	case StatusAccepted:
		if inv.InvitationType == TypeFamilyHistoryShare {
			return []Action{ActionRevoke}
		}
	}
	return nil
}

// Allows reports whether the given action is currently valid.
func Allows(inv *Invitation, action Action, now time.Time) bool {
	for _, a := range AllowedActions(inv, now) {
		if a == action {
			return true
		}
	}
	return false
}

// Summary is the server's aggregate invitation report.
type Summary struct {
	PendingReceived int `json:"pending_received"`
	PendingSent     int `json:"pending_sent"`
	Accepted        int `json:"accepted"`
	Rejected        int `json:"rejected"`
	Expired         int `json:"expired"`
}
