package apitest

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/client"
	"github.com/medrec/medrec/internal/familyhistory"
	"github.com/medrec/medrec/internal/invitation"
	"github.com/medrec/medrec/internal/paperless"
	"github.com/medrec/medrec/internal/records"
)

func newTestClient(t *testing.T, srv *Server) *client.Client {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL, client.NewStaticTokenSource("opaque-token"),
		client.WithDispatchSpacing(time.Millisecond))
}

func TestInvitationLifecycle(t *testing.T) {
	srv := NewServer()
	srv.AddInvitation(&invitation.Invitation{
		Title:          "Share family history",
		InvitationType: invitation.TypeFamilyHistoryShare,
		Status:         invitation.StatusPending,
		SentBy:         "alice",
		SentTo:         "me",
	})
	api := newTestClient(t, srv)
	svc := invitation.NewService(api)
	ctx := context.Background()

	pending, err := svc.ActivePending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invitation, got %d", len(pending))
	}

	lists, err := svc.Respond(ctx, pending[0].ID, invitation.ResponseAccepted, "thanks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists.Pending) != 1 || lists.Pending[0].Status != invitation.StatusAccepted {
		t.Fatalf("expected refetched invitation to be accepted: %+v", lists.Pending)
	}

	// Accepted family-history shares can be revoked, once.
	if _, err := svc.Revoke(ctx, lists.Pending[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	refreshed, err := svc.Pending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Revoke(ctx, refreshed[0]); !errors.Is(err, invitation.ErrAlreadyRevoked) {
		t.Fatalf("expected ErrAlreadyRevoked, got %v", err)
	}
}

func TestShareRevocationRoundTrip(t *testing.T) {
	srv := NewServer()
	member := srv.AddFamilyMember(&familyhistory.FamilyMember{Name: "Grandma", Relationship: "grandmother"})
	srv.AddShare(&familyhistory.Share{
		FamilyMemberID:  member.ID,
		SharedWithID:    "bob",
		PermissionLevel: familyhistory.PermissionView,
	})
	api := newTestClient(t, srv)
	svc := familyhistory.NewService(api)
	ctx := context.Background()

	shares, err := svc.Shares(ctx, member.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 1 || shares[0].SharedWithID != "bob" {
		t.Fatalf("unexpected shares: %+v", shares)
	}

	if err := svc.RevokeShare(ctx, member.ID, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shares, err = svc.Shares(ctx, member.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sh := range shares {
		if sh.SharedWithID == "bob" {
			t.Fatal("revoked share still present")
		}
	}

	byMe, err := svc.SharedByMe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byMe) != 0 {
		t.Fatalf("member should no longer be listed as shared: %+v", byMe)
	}
}

func TestBulkInviteCreatesInvitations(t *testing.T) {
	srv := NewServer()
	m1 := srv.AddFamilyMember(&familyhistory.FamilyMember{Name: "Dad", Relationship: "father"})
	api := newTestClient(t, srv)
	fhSvc := familyhistory.NewService(api)
	invSvc := invitation.NewService(api)
	ctx := context.Background()

	result, err := fhSvc.BulkInvite(ctx, &familyhistory.BulkInviteRequest{
		FamilyMemberIDs:      []string{m1.ID, "missing"},
		SharedWithIdentifier: "carol@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalSent != 1 || result.TotalFailed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	sent, err := invSvc.Sent(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0].InvitationType != invitation.TypeFamilyHistoryShare {
		t.Fatalf("unexpected sent invitations: %+v", sent)
	}
}

func TestDocumentUploadPollsToCompletion(t *testing.T) {
	srv := NewServer()
	srv.ScriptUploads(paperless.StatusPending, paperless.StatusStarted, paperless.StatusSuccess)
	api := newTestClient(t, srv)
	svc := paperless.NewService(api, zerolog.Nop())
	ctx := context.Background()

	up, err := svc.UploadDocument(ctx, "lab-result", "l1", "report.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := svc.PollTaskStatus(ctx, up.TaskUUID, &paperless.PollOptions{
		Interval:    time.Millisecond,
		MaxAttempts: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != paperless.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", task.Status)
	}
}

func TestBackgroundResolutionReportsOutcome(t *testing.T) {
	srv := NewServer()
	srv.ScriptUploads(paperless.StatusPending, paperless.StatusSuccess)
	api := newTestClient(t, srv)
	svc := paperless.NewService(api, zerolog.Nop())
	ctx := context.Background()

	up, err := svc.UploadDocument(ctx, "lab-result", "l2", "scan.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task, err := svc.ResolveBackgroundTask(ctx, up.TaskUUID, up.FileID, &paperless.PollOptions{
		BackgroundInterval: time.Millisecond,
		BackgroundAttempts: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != paperless.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", task.Status)
	}
	if len(srv.SyncUpdates) != 1 {
		t.Fatalf("expected 1 sync update, got %d", len(srv.SyncUpdates))
	}
	if srv.SyncUpdates[0]["file_id"] != up.FileID {
		t.Errorf("sync update carries wrong file id: %+v", srv.SyncUpdates[0])
	}
}

func TestRecordCRUDOverHTTP(t *testing.T) {
	srv := NewServer()
	api := newTestClient(t, srv)
	svc := records.NewService(api)
	ctx := context.Background()

	created, err := svc.CreateMedication(ctx, &records.Medication{Name: "Metformin", Status: "active"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	active, err := svc.ActiveMedications(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active medication, got %d", len(active))
	}

	if err := svc.DeleteMedication(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetMedication(ctx, created.ID); !client.IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestRejectedTokenRequiresLogin(t *testing.T) {
	srv := NewServer()
	srv.RequireToken("good")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := client.NewStaticTokenSource("bad")
	api := client.New(ts.URL, tokens, client.WithDispatchSpacing(time.Millisecond))

	_, err := api.Get(context.Background(), "/invitations/pending")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !apiErr.LoginRequired {
		t.Fatalf("expected login-required auth error, got %v", err)
	}
	if tok, _ := tokens.Token(); tok != "" {
		t.Errorf("token should be cleared after rejection, got %q", tok)
	}
}
