package records

import (
	"context"
	"time"
)

// Practitioner is a care provider referenced by other records.
type Practitioner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Facility  string    `json:"facility,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) ListPractitioners(ctx context.Context) ([]*Practitioner, error) {
	var out []*Practitioner
	return out, s.getList(ctx, "/practitioners", nil, &out)
}

func (s *Service) GetPractitioner(ctx context.Context, id string) (*Practitioner, error) {
	var out Practitioner
	return &out, s.getOne(ctx, "/practitioners/"+id, &out)
}

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) (*Practitioner, error) {
	var out Practitioner
	return &out, s.create(ctx, "/practitioners", p, &out)
}

func (s *Service) UpdatePractitioner(ctx context.Context, p *Practitioner) (*Practitioner, error) {
	var out Practitioner
	return &out, s.update(ctx, "/practitioners/"+p.ID, p, &out)
}

func (s *Service) DeletePractitioner(ctx context.Context, id string) error {
	return s.delete(ctx, "/practitioners/"+id)
}
