package services

import (
	"context"
	"fmt"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

// ApplicationService runs the application lifecycle: submission with the
// one-per-posting guarantee, scoped listing, guarded edits and withdrawal.
type ApplicationService struct {
	Store    store.Store
	Engine   *authz.Engine
	Notifier *Notifier
}

func NewApplicationService(st store.Store, engine *authz.Engine, notifier *Notifier) *ApplicationService {
	return &ApplicationService{Store: st, Engine: engine, Notifier: notifier}
}

func applicationResource(a *db.Application, parties *store.Parties) authz.Resource {
	return authz.Resource{
		Entity:      authz.EntityApplication,
		ID:          a.ID,
		OwnerID:     parties.RecruiterID,
		CandidateID: a.CandidateID,
		RecruiterID: parties.RecruiterID,
		Status:      a.Status,
	}
}

// Apply submits an application. The posting must exist, the candidate in the
// payload must be the caller, and storage enforces the single-application
// invariant atomically.
func (s *ApplicationService) Apply(ctx context.Context, p authz.Principal, app *db.Application) (*db.Application, error) {
	posting, err := s.Store.GetPosting(ctx, app.PostingID)
	if err != nil {
		return nil, err
	}

	proposed := authz.Resource{
		Entity:      authz.EntityApplication,
		OwnerID:     posting.RecruiterID,
		CandidateID: app.CandidateID,
	}
	if d := s.Engine.Check(p, authz.ActionCreate, proposed); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityApplication, authz.ActionCreate, d.Reason)
	}
	if app.CandidateID == "" {
		app.CandidateID = p.ID
	}

	if err := s.Store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.Notifier.Publish(ctx, Event{
		AccountID: posting.RecruiterID,
		Kind:      "application_received",
		EntityID:  app.ID,
		Message:   fmt.Sprintf("New application for %s", posting.Title),
	})
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, p authz.Principal, id string) (*db.Application, error) {
	app, parties, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.Engine.Check(p, authz.ActionRead, applicationResource(app, parties)); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityApplication, authz.ActionRead, d.Reason)
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Application, error) {
	plan, err := s.Engine.Scope(p, authz.EntityApplication, req)
	if err != nil {
		return nil, err
	}
	return s.Store.ListApplications(ctx, plan)
}

// ListMine returns the applications the caller submitted as a candidate. The
// forced filter overrides any candidate_id the caller put on the query string.
func (s *ApplicationService) ListMine(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Application, error) {
	if p.Role != authz.RoleCandidate && p.Role != authz.RoleAdmin {
		return nil, authz.Forbidden(authz.EntityApplication, authz.ActionRead, "role does not submit applications")
	}
	if req.Filters == nil {
		req.Filters = make(map[string]string)
	}
	req.Filters["candidate_id"] = p.ID
	return s.List(ctx, p, req)
}

// Update applies a sanitized change-set. A status transition notifies the
// candidate.
func (s *ApplicationService) Update(ctx context.Context, p authz.Principal, id string, changes map[string]any) (*db.Application, error) {
	app, parties, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := applicationResource(app, parties)
	if d := s.Engine.Check(p, authz.ActionUpdate, r); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityApplication, authz.ActionUpdate, d.Reason)
	}
	clean, err := s.Engine.Sanitize(p, r, changes)
	if err != nil {
		return nil, err
	}
	if status, ok := clean["status"].(string); ok && !db.ValidApplicationStatus(status) {
		return nil, &authz.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	if err := s.Store.UpdateApplication(ctx, id, clean); err != nil {
		return nil, err
	}

	if status, ok := clean["status"].(string); ok && status != app.Status {
		s.Notifier.Publish(ctx, Event{
			AccountID: app.CandidateID,
			Kind:      "status_changed",
			EntityID:  app.ID,
			Message:   fmt.Sprintf("Your application is now %s", status),
		})
	}
	return s.Store.GetApplication(ctx, id)
}

// Delete withdraws an application. Candidates remove their own; recruiters
// and admins may clear applications under their postings.
func (s *ApplicationService) Delete(ctx context.Context, p authz.Principal, id string) error {
	app, parties, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if d := s.Engine.Check(p, authz.ActionDelete, applicationResource(app, parties)); !d.Allowed {
		return authz.Forbidden(authz.EntityApplication, authz.ActionDelete, d.Reason)
	}
	return s.Store.DeleteApplication(ctx, id)
}

func (s *ApplicationService) load(ctx context.Context, id string) (*db.Application, *store.Parties, error) {
	app, err := s.Store.GetApplication(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	parties, err := s.Store.ApplicationParties(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return app, parties, nil
}
