package records

import (
	"context"
	"time"
)

// LabResult is one laboratory result, optionally with attached documents in
// the document store.
type LabResult struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	TestName       string     `json:"test_name"`
	TestCode       string     `json:"test_code,omitempty"`
	Value          string     `json:"value,omitempty"`
	Unit           string     `json:"unit,omitempty"`
	ReferenceRange string     `json:"reference_range,omitempty"`
	Status         string     `json:"status"`
	CollectedAt    *time.Time `json:"collected_at,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (s *Service) ListLabResults(ctx context.Context) ([]*LabResult, error) {
	var out []*LabResult
	return out, s.getList(ctx, "/lab-results", nil, &out)
}

// RecentLabResults returns the newest results first, capped at limit.
func (s *Service) RecentLabResults(ctx context.Context, limit int) ([]*LabResult, error) {
	var out []*LabResult
	return out, s.getList(ctx, "/lab-results", recentQuery(limit), &out)
}

func (s *Service) GetLabResult(ctx context.Context, id string) (*LabResult, error) {
	var out LabResult
	return &out, s.getOne(ctx, "/lab-results/"+id, &out)
}

func (s *Service) CreateLabResult(ctx context.Context, r *LabResult) (*LabResult, error) {
	var out LabResult
	return &out, s.create(ctx, "/lab-results", r, &out)
}

func (s *Service) UpdateLabResult(ctx context.Context, r *LabResult) (*LabResult, error) {
	var out LabResult
	return &out, s.update(ctx, "/lab-results/"+r.ID, r, &out)
}

func (s *Service) DeleteLabResult(ctx context.Context, id string) error {
	return s.delete(ctx, "/lab-results/"+id)
}
