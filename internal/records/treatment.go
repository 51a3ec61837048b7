package records

import (
	"context"
	"net/url"
	"time"
)

// Treatment is an ongoing treatment or therapy plan entry.
type Treatment struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	Name        string     `json:"name"`
	Category    string     `json:"category,omitempty"`
	Status      string     `json:"status"`
	ConditionID string     `json:"condition_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (s *Service) ListTreatments(ctx context.Context) ([]*Treatment, error) {
	var out []*Treatment
	return out, s.getList(ctx, "/treatments", nil, &out)
}

// ActiveTreatments returns treatments still in progress.
func (s *Service) ActiveTreatments(ctx context.Context) ([]*Treatment, error) {
	q := url.Values{}
	q.Set("status", "active")
	var out []*Treatment
	return out, s.getList(ctx, "/treatments", q, &out)
}

func (s *Service) GetTreatment(ctx context.Context, id string) (*Treatment, error) {
	var out Treatment
	return &out, s.getOne(ctx, "/treatments/"+id, &out)
}

func (s *Service) CreateTreatment(ctx context.Context, t *Treatment) (*Treatment, error) {
	var out Treatment
	return &out, s.create(ctx, "/treatments", t, &out)
}

func (s *Service) UpdateTreatment(ctx context.Context, t *Treatment) (*Treatment, error) {
	var out Treatment
	return &out, s.update(ctx, "/treatments/"+t.ID, t, &out)
}

func (s *Service) DeleteTreatment(ctx context.Context, id string) error {
	return s.delete(ctx, "/treatments/"+id)
}
