package familyhistory

import "time"

// FamilyMember is a relative in the user's family health history.
type FamilyMember struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Relationship     string             `json:"relationship"`
	BirthYear        *int               `json:"birth_year,omitempty"`
	IsShared         bool               `json:"is_shared"`
	FamilyConditions []*FamilyCondition `json:"family_conditions,omitempty"`
}

// FamilyCondition is a condition recorded against a family member.
type FamilyCondition struct {
	ID            string `json:"id"`
	ConditionName string `json:"condition_name"`
	Status        string `json:"status,omitempty"`
	OnsetAge      *int   `json:"onset_age,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// PermissionLevel controls what a recipient may do with a shared record.
type PermissionLevel string

const (
	PermissionView PermissionLevel = "view"
	PermissionEdit PermissionLevel = "edit"
)

// Share is the granted-access relationship created once an invitation is
// accepted. It joins a family member (or patient record) to a recipient.
type Share struct {
	ID              string          `json:"id"`
	FamilyMemberID  string          `json:"family_member_id"`
	SharedWithID    string          `json:"shared_with_user_id"`
	SharedWithName  string          `json:"shared_with_name,omitempty"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	SharingNote     string          `json:"sharing_note,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BulkInviteRequest asks the server to invite one recipient to several
// family members at once.
type BulkInviteRequest struct {
	FamilyMemberIDs      []string        `json:"family_member_ids"`
	SharedWithIdentifier string          `json:"shared_with_identifier"`
	PermissionLevel      PermissionLevel `json:"permission_level"`
	SharingNote          string          `json:"sharing_note,omitempty"`
	ExpiresHours         int             `json:"expires_hours,omitempty"`
}

// BulkInviteOutcome is the per-member result inside a bulk invite report.
type BulkInviteOutcome struct {
	FamilyMemberID string `json:"family_member_id"`
	Success        bool   `json:"success"`
	InvitationID   string `json:"invitation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// BulkInviteResult is a partial-success report, not an all-or-nothing
// outcome: a 200 response can still carry failures. Callers must surface
// both counts.
type BulkInviteResult struct {
	TotalSent   int                  `json:"total_sent"`
	TotalFailed int                  `json:"total_failed"`
	Results     []*BulkInviteOutcome `json:"results"`
}

// AllSucceeded reports whether every member was invited.
func (r *BulkInviteResult) AllSucceeded() bool { return r.TotalFailed == 0 }
