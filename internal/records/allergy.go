package records

import (
	"context"
	"net/url"
	"time"
)

// Allergy is a recorded allergy or intolerance.
type Allergy struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Allergen  string    `json:"allergen"`
	Reaction  string    `json:"reaction,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) ListAllergies(ctx context.Context) ([]*Allergy, error) {
	var out []*Allergy
	return out, s.getList(ctx, "/allergies", nil, &out)
}

// ActiveAllergies returns allergies still flagged active.
func (s *Service) ActiveAllergies(ctx context.Context) ([]*Allergy, error) {
	q := url.Values{}
	q.Set("status", "active")
	var out []*Allergy
	return out, s.getList(ctx, "/allergies", q, &out)
}

func (s *Service) GetAllergy(ctx context.Context, id string) (*Allergy, error) {
	var out Allergy
	return &out, s.getOne(ctx, "/allergies/"+id, &out)
}

func (s *Service) CreateAllergy(ctx context.Context, a *Allergy) (*Allergy, error) {
	var out Allergy
	return &out, s.create(ctx, "/allergies", a, &out)
}

func (s *Service) UpdateAllergy(ctx context.Context, a *Allergy) (*Allergy, error) {
	var out Allergy
	return &out, s.update(ctx, "/allergies/"+a.ID, a, &out)
}

func (s *Service) DeleteAllergy(ctx context.Context, id string) error {
	return s.delete(ctx, "/allergies/"+id)
}
