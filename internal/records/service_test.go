package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type mockAPI struct {
	gets    []string
	posts   []string
	puts    []string
	deletes []string
	bodies  map[string]interface{}
	replies map[string]string
	err     error
}

func newMockAPI() *mockAPI {
	return &mockAPI{bodies: map[string]interface{}{}, replies: map[string]string{}}
}

func (m *mockAPI) reply(path string) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.replies[path]; ok {
		return json.RawMessage(r), nil
	}
	return json.RawMessage(`{}`), nil
}

func (m *mockAPI) Get(ctx context.Context, path string) (json.RawMessage, error) {
	m.gets = append(m.gets, path)
	return m.reply(path)
}

func (m *mockAPI) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	m.posts = append(m.posts, path)
	m.bodies[path] = body
	return m.reply(path)
}

func (m *mockAPI) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	m.puts = append(m.puts, path)
	m.bodies[path] = body
	return m.reply(path)
}

func (m *mockAPI) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	m.deletes = append(m.deletes, path)
	return m.reply(path)
}

func TestActiveMedications_FiltersByStatus(t *testing.T) {
	api := newMockAPI()
	api.replies["/medications?status=active"] = `[{"id":"m1","name":"Lisinopril","status":"active"}]`
	svc := NewService(api)

	meds, err := svc.ActiveMedications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meds) != 1 || meds[0].Name != "Lisinopril" {
		t.Fatalf("unexpected medications: %+v", meds)
	}
	if api.gets[0] != "/medications?status=active" {
		t.Errorf("unexpected path %q", api.gets[0])
	}
}

func TestRecentLabResults_OrdersAndLimits(t *testing.T) {
	api := newMockAPI()
	api.replies["/lab-results?limit=5&ordering=-created_at"] = `[{"id":"l1"},{"id":"l2"}]`
	svc := NewService(api)

	results, err := svc.RecentLabResults(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if api.gets[0] != "/lab-results?limit=5&ordering=-created_at" {
		t.Errorf("unexpected path %q", api.gets[0])
	}
}

func TestRecentQuery_ZeroLimitOmitsLimit(t *testing.T) {
	q := recentQuery(0)
	if q.Get("ordering") != "-created_at" {
		t.Errorf("ordering = %q", q.Get("ordering"))
	}
	if q.Has("limit") {
		t.Error("limit should be absent when zero")
	}
}

func TestCreateCondition_PostsAndDecodes(t *testing.T) {
	api := newMockAPI()
	api.replies["/conditions"] = `{"id":"c1","name":"Asthma","status":"active"}`
	svc := NewService(api)

	got, err := svc.CreateCondition(context.Background(), &Condition{Name: "Asthma", Status: "active"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "c1" {
		t.Errorf("expected server-assigned id, got %q", got.ID)
	}
	if len(api.posts) != 1 || api.posts[0] != "/conditions" {
		t.Errorf("unexpected posts: %v", api.posts)
	}
}

func TestUpdateAllergy_PutsToResourcePath(t *testing.T) {
	api := newMockAPI()
	api.replies["/allergies/a1"] = `{"id":"a1","allergen":"penicillin","status":"inactive"}`
	svc := NewService(api)

	got, err := svc.UpdateAllergy(context.Background(), &Allergy{ID: "a1", Allergen: "penicillin", Status: "inactive"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "inactive" {
		t.Errorf("status = %q", got.Status)
	}
	if len(api.puts) != 1 || api.puts[0] != "/allergies/a1" {
		t.Errorf("unexpected puts: %v", api.puts)
	}
}

func TestDeleteEncounter(t *testing.T) {
	api := newMockAPI()
	svc := NewService(api)

	if err := svc.DeleteEncounter(context.Background(), "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.deletes) != 1 || api.deletes[0] != "/encounters/e1" {
		t.Errorf("unexpected deletes: %v", api.deletes)
	}
}

func TestErrorsPropagateUndecorated(t *testing.T) {
	api := newMockAPI()
	api.err = errors.New("boom")
	svc := NewService(api)

	if _, err := svc.ListProcedures(context.Background()); !errors.Is(err, api.err) {
		t.Fatalf("expected underlying error, got %v", err)
	}
}

func TestPreferences_RoundTrip(t *testing.T) {
	api := newMockAPI()
	api.replies["/users/me/preferences"] = `{"timezone":"Europe/Berlin","email_notifications":true}`
	svc := NewService(api)

	prefs, err := svc.GetPreferences(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefs.Timezone != "Europe/Berlin" || !prefs.EmailNotifications {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	if _, err := svc.UpdatePreferences(context.Background(), prefs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.puts) != 1 || api.puts[0] != "/users/me/preferences" {
		t.Errorf("unexpected puts: %v", api.puts)
	}
}

func TestDecodeErrorNamesPath(t *testing.T) {
	api := newMockAPI()
	api.replies["/immunizations"] = `not json`
	svc := NewService(api)

	_, err := svc.ListImmunizations(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
}
