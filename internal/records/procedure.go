package records

import (
	"context"
	"time"
)

// Procedure is a performed or scheduled medical procedure.
type Procedure struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	Name           string     `json:"name"`
	Code           string     `json:"code,omitempty"`
	Status         string     `json:"status"`
	PractitionerID string     `json:"practitioner_id,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	Facility       string     `json:"facility,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (s *Service) ListProcedures(ctx context.Context) ([]*Procedure, error) {
	var out []*Procedure
	return out, s.getList(ctx, "/procedures", nil, &out)
}

// RecentProcedures returns the newest procedures first, capped at limit.
func (s *Service) RecentProcedures(ctx context.Context, limit int) ([]*Procedure, error) {
	var out []*Procedure
	return out, s.getList(ctx, "/procedures", recentQuery(limit), &out)
}

func (s *Service) GetProcedure(ctx context.Context, id string) (*Procedure, error) {
	var out Procedure
	return &out, s.getOne(ctx, "/procedures/"+id, &out)
}

func (s *Service) CreateProcedure(ctx context.Context, p *Procedure) (*Procedure, error) {
	var out Procedure
	return &out, s.create(ctx, "/procedures", p, &out)
}

func (s *Service) UpdateProcedure(ctx context.Context, p *Procedure) (*Procedure, error) {
	var out Procedure
	return &out, s.update(ctx, "/procedures/"+p.ID, p, &out)
}

func (s *Service) DeleteProcedure(ctx context.Context, id string) error {
	return s.delete(ctx, "/procedures/"+id)
}
