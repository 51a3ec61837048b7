package records

import (
	"context"
	"net/url"
	"time"
)

// Medication is one entry on the patient's medication list.
type Medication struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	Name           string     `json:"name"`
	Dosage         string     `json:"dosage,omitempty"`
	Frequency      string     `json:"frequency,omitempty"`
	Route          string     `json:"route,omitempty"`
	Status         string     `json:"status"`
	PractitionerID string     `json:"practitioner_id,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (s *Service) ListMedications(ctx context.Context) ([]*Medication, error) {
	var out []*Medication
	return out, s.getList(ctx, "/medications", nil, &out)
}

// ActiveMedications returns medications with an active status.
func (s *Service) ActiveMedications(ctx context.Context) ([]*Medication, error) {
	q := url.Values{}
	q.Set("status", "active")
	var out []*Medication
	return out, s.getList(ctx, "/medications", q, &out)
}

func (s *Service) GetMedication(ctx context.Context, id string) (*Medication, error) {
	var out Medication
	return &out, s.getOne(ctx, "/medications/"+id, &out)
}

func (s *Service) CreateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	var out Medication
	return &out, s.create(ctx, "/medications", m, &out)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	var out Medication
	return &out, s.update(ctx, "/medications/"+m.ID, m, &out)
}

func (s *Service) DeleteMedication(ctx context.Context, id string) error {
	return s.delete(ctx, "/medications/"+id)
}
