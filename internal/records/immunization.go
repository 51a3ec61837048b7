package records

import (
	"context"
	"time"
)

// Immunization is one administered vaccine dose.
type Immunization struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patient_id"`
	VaccineName  string     `json:"vaccine_name"`
	DoseNumber   int        `json:"dose_number,omitempty"`
	LotNumber    string     `json:"lot_number,omitempty"`
	Site         string     `json:"site,omitempty"`
	Administered *time.Time `json:"administered_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (s *Service) ListImmunizations(ctx context.Context) ([]*Immunization, error) {
	var out []*Immunization
	return out, s.getList(ctx, "/immunizations", nil, &out)
}

// RecentImmunizations returns the newest doses first, capped at limit.
func (s *Service) RecentImmunizations(ctx context.Context, limit int) ([]*Immunization, error) {
	var out []*Immunization
	return out, s.getList(ctx, "/immunizations", recentQuery(limit), &out)
}

func (s *Service) GetImmunization(ctx context.Context, id string) (*Immunization, error) {
	var out Immunization
	return &out, s.getOne(ctx, "/immunizations/"+id, &out)
}

func (s *Service) CreateImmunization(ctx context.Context, i *Immunization) (*Immunization, error) {
	var out Immunization
	return &out, s.create(ctx, "/immunizations", i, &out)
}

func (s *Service) UpdateImmunization(ctx context.Context, i *Immunization) (*Immunization, error) {
	var out Immunization
	return &out, s.update(ctx, "/immunizations/"+i.ID, i, &out)
}

func (s *Service) DeleteImmunization(ctx context.Context, id string) error {
	return s.delete(ctx, "/immunizations/"+id)
}
