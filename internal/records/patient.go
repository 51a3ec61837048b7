package records

import (
	"context"
	"time"
)

// Patient is the profile of the signed-in user or a family member
// whose records they manage.
type Patient struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	BloodType string     `json:"blood_type,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Preferences are the per-user display and notification settings.
type Preferences struct {
	Timezone           string `json:"timezone,omitempty"`
	DateFormat         string `json:"date_format,omitempty"`
	UnitSystem         string `json:"unit_system,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
}

// CurrentPatient returns the profile of the signed-in user.
func (s *Service) CurrentPatient(ctx context.Context) (*Patient, error) {
	var out Patient
	return &out, s.getOne(ctx, "/patients/me", &out)
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var out Patient
	return &out, s.getOne(ctx, "/patients/"+id, &out)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	var out Patient
	return &out, s.update(ctx, "/patients/"+p.ID, p, &out)
}

func (s *Service) GetPreferences(ctx context.Context) (*Preferences, error) {
	var out Preferences
	return &out, s.getOne(ctx, "/users/me/preferences", &out)
}

func (s *Service) UpdatePreferences(ctx context.Context, p *Preferences) (*Preferences, error) {
	var out Preferences
	return &out, s.update(ctx, "/users/me/preferences", p, &out)
}
