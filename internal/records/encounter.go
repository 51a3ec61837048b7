package records

import (
	"context"
	"time"
)

// Encounter is a visit or consultation with a practitioner.
type Encounter struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	PractitionerID string     `json:"practitioner_id,omitempty"`
	Type           string     `json:"type"`
	Reason         string     `json:"reason,omitempty"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Facility       string     `json:"facility,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (s *Service) ListEncounters(ctx context.Context) ([]*Encounter, error) {
	var out []*Encounter
	return out, s.getList(ctx, "/encounters", nil, &out)
}

// RecentEncounters returns the newest visits first, capped at limit.
func (s *Service) RecentEncounters(ctx context.Context, limit int) ([]*Encounter, error) {
	var out []*Encounter
	return out, s.getList(ctx, "/encounters", recentQuery(limit), &out)
}

func (s *Service) GetEncounter(ctx context.Context, id string) (*Encounter, error) {
	var out Encounter
	return &out, s.getOne(ctx, "/encounters/"+id, &out)
}

func (s *Service) CreateEncounter(ctx context.Context, e *Encounter) (*Encounter, error) {
	var out Encounter
	return &out, s.create(ctx, "/encounters", e, &out)
}

func (s *Service) UpdateEncounter(ctx context.Context, e *Encounter) (*Encounter, error) {
	var out Encounter
	return &out, s.update(ctx, "/encounters/"+e.ID, e, &out)
}

func (s *Service) DeleteEncounter(ctx context.Context, id string) error {
	return s.delete(ctx, "/encounters/"+id)
}
