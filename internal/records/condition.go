package records

import (
	"context"
	"net/url"
	"time"
)

// Condition is a diagnosed medical condition on the patient's record.
type Condition struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id"`
	Name      string     `json:"name"`
	Code      string     `json:"code,omitempty"`
	Status    string     `json:"status"`
	Severity  string     `json:"severity,omitempty"`
	OnsetDate *time.Time `json:"onset_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Service) ListConditions(ctx context.Context) ([]*Condition, error) {
	var out []*Condition
	return out, s.getList(ctx, "/conditions", nil, &out)
}

// ActiveConditions returns conditions not yet resolved.
func (s *Service) ActiveConditions(ctx context.Context) ([]*Condition, error) {
	q := url.Values{}
	q.Set("status", "active")
	var out []*Condition
	return out, s.getList(ctx, "/conditions", q, &out)
}

func (s *Service) GetCondition(ctx context.Context, id string) (*Condition, error) {
	var out Condition
	return &out, s.getOne(ctx, "/conditions/"+id, &out)
}

func (s *Service) CreateCondition(ctx context.Context, c *Condition) (*Condition, error) {
	var out Condition
	return &out, s.create(ctx, "/conditions", c, &out)
}

func (s *Service) UpdateCondition(ctx context.Context, c *Condition) (*Condition, error) {
	var out Condition
	return &out, s.update(ctx, "/conditions/"+c.ID, c, &out)
}

func (s *Service) DeleteCondition(ctx context.Context, id string) error {
	return s.delete(ctx, "/conditions/"+id)
}
