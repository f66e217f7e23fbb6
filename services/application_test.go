package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

func testPrincipal(id string, role authz.Role) authz.Principal {
	return authz.Principal{ID: id, Role: role, Status: authz.StatusActive}
}

type fixture struct {
	store        *store.Memory
	postings     *PostingService
	applications *ApplicationService
	interviews   *InterviewService

	admin     authz.Principal
	recruiter authz.Principal
	other     authz.Principal
	candidate authz.Principal
	rival     authz.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	engine := authz.NewEngine(20, 100)
	notifier := NewNotifier(nil)
	f := &fixture{
		store:        mem,
		postings:     NewPostingService(mem, engine),
		applications: NewApplicationService(mem, engine, notifier),
		interviews:   NewInterviewService(mem, engine, notifier),
		admin:        testPrincipal("adm-1", authz.RoleAdmin),
		recruiter:    testPrincipal("rec-1", authz.RoleRecruiter),
		other:        testPrincipal("rec-2", authz.RoleRecruiter),
		candidate:    testPrincipal("can-1", authz.RoleCandidate),
		rival:        testPrincipal("can-2", authz.RoleCandidate),
	}
	return f
}

// Recruiter R1 owns posting P1. Candidate C1 applies. R1 sees the application
// in a scoped listing, candidate C2 sees nothing, the admin sees everything.
func TestApplicationVisibilityAcrossRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posting, err := f.postings.Create(ctx, f.recruiter, &db.Posting{
		Title: "Backend Engineer", Company: "Acme",
	})
	if err != nil {
		t.Fatalf("create posting: %v", err)
	}
	if posting.RecruiterID != "rec-1" {
		t.Fatalf("posting owner = %s, want rec-1", posting.RecruiterID)
	}

	app, err := f.applications.Apply(ctx, f.candidate, &db.Application{
		PostingID: posting.ID, CoverLetter: "hi",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.CandidateID != "can-1" || app.Status != db.ApplicationPending {
		t.Fatalf("application = %+v", app)
	}

	rows, err := f.applications.List(ctx, f.recruiter, authz.ListRequest{})
	if err != nil {
		t.Fatalf("recruiter list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != app.ID {
		t.Errorf("recruiter sees %d applications, want the one under posting P1", len(rows))
	}

	rows, err = f.applications.List(ctx, f.other, authz.ListRequest{})
	if err != nil {
		t.Fatalf("other recruiter list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("foreign recruiter sees %d applications, want 0", len(rows))
	}

	rows, err = f.applications.List(ctx, f.rival, authz.ListRequest{})
	if err != nil {
		t.Fatalf("rival candidate list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rival candidate sees %d applications, want 0", len(rows))
	}

	rows, err = f.applications.List(ctx, f.admin, authz.ListRequest{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("admin sees %d applications, want 1", len(rows))
	}

	// Direct reads follow the same decisions.
	if _, err := f.applications.Get(ctx, f.rival, app.ID); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("rival read: err = %v, want ErrForbidden", err)
	}
	if _, err := f.applications.Get(ctx, f.candidate, app.ID); err != nil {
		t.Errorf("owner read: err = %v", err)
	}
}

func TestApplyRejectsSpoofedCandidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posting, err := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.applications.Apply(ctx, f.candidate, &db.Application{
		PostingID: posting.ID, CandidateID: "can-2",
	})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("spoofed candidate_id: err = %v, want ErrForbidden", err)
	}
}

func TestApplyTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posting, err := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.applications.Apply(ctx, f.candidate, &db.Application{PostingID: posting.ID}); err != nil {
		t.Fatal(err)
	}
	_, err = f.applications.Apply(ctx, f.candidate, &db.Application{PostingID: posting.ID})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second apply: err = %v, want ErrConflict", err)
	}
}

func TestApplicationStatusFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posting, _ := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role"})
	app, err := f.applications.Apply(ctx, f.candidate, &db.Application{PostingID: posting.ID})
	if err != nil {
		t.Fatal(err)
	}

	// The owning recruiter moves status; a candidate cannot.
	updated, err := f.applications.Update(ctx, f.recruiter, app.ID, map[string]any{"status": "reviewed"})
	if err != nil {
		t.Fatalf("recruiter status update: %v", err)
	}
	if updated.Status != "reviewed" {
		t.Errorf("status = %s, want reviewed", updated.Status)
	}

	_, err = f.applications.Update(ctx, f.candidate, app.ID, map[string]any{"status": "accepted"})
	if !errors.Is(err, authz.ErrRejectedFields) {
		t.Errorf("candidate status change: err = %v, want ErrRejectedFields", err)
	}

	// Candidate edits stopped once the application left pending.
	_, err = f.applications.Update(ctx, f.candidate, app.ID, map[string]any{"cover_letter": "v2"})
	if !errors.Is(err, authz.ErrInvalidState) {
		t.Errorf("candidate edit after review: err = %v, want ErrInvalidState", err)
	}

	// A foreign recruiter cannot touch it at all.
	_, err = f.applications.Update(ctx, f.other, app.ID, map[string]any{"status": "rejected"})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("foreign recruiter update: err = %v, want ErrForbidden", err)
	}

	// Terminal status blocks further transitions for non-admins.
	if _, err := f.applications.Update(ctx, f.recruiter, app.ID, map[string]any{"status": "accepted"}); err != nil {
		t.Fatal(err)
	}
	_, err = f.applications.Update(ctx, f.recruiter, app.ID, map[string]any{"status": "pending"})
	if !errors.Is(err, authz.ErrInvalidState) {
		t.Errorf("transition out of accepted: err = %v, want ErrInvalidState", err)
	}

	// Unknown status values fail validation.
	_, err = f.applications.Update(ctx, f.admin, app.ID, map[string]any{"status": "maybe"})
	if !errors.Is(err, authz.ErrValidation) {
		t.Errorf("bogus status: err = %v, want ErrValidation", err)
	}
}

func TestScheduleInterviewChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	when := time.Now().Add(72 * time.Hour)

	posting, _ := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role"})
	app, err := f.applications.Apply(ctx, f.candidate, &db.Application{PostingID: posting.ID})
	if err != nil {
		t.Fatal(err)
	}

	// A recruiter who does not own the posting cannot schedule.
	_, err = f.interviews.Schedule(ctx, f.other, &db.Interview{
		ApplicationID: app.ID, ScheduledDate: when,
	})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("foreign recruiter schedule: err = %v, want ErrForbidden", err)
	}

	iv, err := f.interviews.Schedule(ctx, f.recruiter, &db.Interview{
		ApplicationID: app.ID, ScheduledDate: when, DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if iv.RecruiterID != "rec-1" || iv.Status != db.InterviewScheduled {
		t.Fatalf("interview = %+v", iv)
	}

	// The candidate reads but cannot modify.
	if _, err := f.interviews.Get(ctx, f.candidate, iv.ID); err != nil {
		t.Errorf("candidate read: %v", err)
	}
	_, err = f.interviews.Update(ctx, f.candidate, iv.ID, map[string]any{"notes": "reschedule?"})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("candidate update: err = %v, want ErrForbidden", err)
	}

	// The rival candidate sees nothing through the chain.
	if _, err := f.interviews.Get(ctx, f.rival, iv.ID); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("rival read: err = %v, want ErrForbidden", err)
	}
	rows, err := f.interviews.List(ctx, f.rival, authz.ListRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rival listing sees %d interviews, want 0", len(rows))
	}

	// Scheduling in the past fails validation.
	_, err = f.interviews.Schedule(ctx, f.recruiter, &db.Interview{
		ApplicationID: app.ID, ScheduledDate: time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, authz.ErrValidation) {
		t.Errorf("past interview: err = %v, want ErrValidation", err)
	}
}

func TestPostingOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Creating on behalf of another recruiter is denied for non-admins.
	_, err := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role", RecruiterID: "rec-2"})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("spoofed owner: err = %v, want ErrForbidden", err)
	}

	posting, err := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Role"})
	if err != nil {
		t.Fatal(err)
	}

	// Everyone reads postings, only the owner and admin write.
	if _, err := f.postings.Get(ctx, f.candidate, posting.ID); err != nil {
		t.Errorf("candidate read: %v", err)
	}
	_, err = f.postings.Update(ctx, f.other, posting.ID, map[string]any{"title": "Hijacked"})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("foreign update: err = %v, want ErrForbidden", err)
	}
	if _, err := f.postings.Update(ctx, f.admin, posting.ID, map[string]any{"title": "Adjusted"}); err != nil {
		t.Errorf("admin update: %v", err)
	}
	if err := f.postings.Delete(ctx, f.other, posting.ID); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("foreign delete: err = %v, want ErrForbidden", err)
	}
	if err := f.postings.Delete(ctx, f.recruiter, posting.ID); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}

// The my-X listings force the caller's own identity into the filter set, so
// a recruiter reaches "my postings" without hand-crafting a recruiter_id
// query, and a caller-supplied id for someone else is overridden.
func TestListMineScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	when := time.Now().Add(72 * time.Hour)

	mine, err := f.postings.Create(ctx, f.recruiter, &db.Posting{Title: "Mine"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.postings.Create(ctx, f.other, &db.Posting{Title: "Theirs"}); err != nil {
		t.Fatal(err)
	}

	rows, err := f.postings.ListMine(ctx, f.recruiter, authz.ListRequest{})
	if err != nil {
		t.Fatalf("my postings: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != mine.ID {
		t.Errorf("my postings = %d rows, want only the owned one", len(rows))
	}

	// A caller-supplied foreign id cannot widen the listing.
	rows, err = f.postings.ListMine(ctx, f.recruiter, authz.ListRequest{
		Filters: map[string]string{"recruiter_id": "rec-2"},
	})
	if err != nil {
		t.Fatalf("my postings with foreign filter: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != mine.ID {
		t.Errorf("foreign recruiter_id filter was not overridden")
	}

	if _, err := f.postings.ListMine(ctx, f.candidate, authz.ListRequest{}); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("candidate my postings: err = %v, want ErrForbidden", err)
	}

	app, err := f.applications.Apply(ctx, f.candidate, &db.Application{PostingID: mine.ID})
	if err != nil {
		t.Fatal(err)
	}
	apps, err := f.applications.ListMine(ctx, f.candidate, authz.ListRequest{})
	if err != nil {
		t.Fatalf("my applications: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != app.ID {
		t.Errorf("my applications = %d rows, want the submitted one", len(apps))
	}
	if _, err := f.applications.ListMine(ctx, f.other, authz.ListRequest{}); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("recruiter my applications: err = %v, want ErrForbidden", err)
	}

	iv, err := f.interviews.Schedule(ctx, f.recruiter, &db.Interview{
		ApplicationID: app.ID, ScheduledDate: when,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []authz.Principal{f.recruiter, f.candidate} {
		ivs, err := f.interviews.ListMine(ctx, p, authz.ListRequest{})
		if err != nil {
			t.Fatalf("%s my interviews: %v", p.Role, err)
		}
		if len(ivs) != 1 || ivs[0].ID != iv.ID {
			t.Errorf("%s my interviews = %d rows, want 1", p.Role, len(ivs))
		}
	}
	ivs, err := f.interviews.ListMine(ctx, f.rival, authz.ListRequest{})
	if err != nil {
		t.Fatalf("rival my interviews: %v", err)
	}
	if len(ivs) != 0 {
		t.Errorf("rival sees %d interviews, want 0", len(ivs))
	}
}
