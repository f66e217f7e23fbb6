package services

import (
	"context"
	"fmt"
	"time"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

// InterviewService schedules and manages interviews, resolving the
// interview -> application -> posting chain for every decision.
type InterviewService struct {
	Store    store.Store
	Engine   *authz.Engine
	Notifier *Notifier
}

func NewInterviewService(st store.Store, engine *authz.Engine, notifier *Notifier) *InterviewService {
	return &InterviewService{Store: st, Engine: engine, Notifier: notifier}
}

func interviewResource(iv *db.Interview, parties *store.Parties) authz.Resource {
	return authz.Resource{
		Entity:      authz.EntityInterview,
		ID:          iv.ID,
		OwnerID:     parties.RecruiterID,
		CandidateID: parties.CandidateID,
		RecruiterID: iv.RecruiterID,
		Status:      iv.Status,
	}
}

// Schedule creates an interview for an application. Only the recruiter whose
// posting the application targets (or an admin) may schedule, and the
// interviewer in the payload must be the caller unless the caller is an
// admin.
func (s *InterviewService) Schedule(ctx context.Context, p authz.Principal, iv *db.Interview) (*db.Interview, error) {
	parties, err := s.Store.ApplicationParties(ctx, iv.ApplicationID)
	if err != nil {
		return nil, err
	}
	if iv.ScheduledDate.Before(time.Now()) {
		return nil, &authz.ValidationError{Field: "scheduled_date", Reason: "must be in the future"}
	}

	proposed := authz.Resource{
		Entity:      authz.EntityInterview,
		OwnerID:     parties.RecruiterID,
		CandidateID: parties.CandidateID,
		RecruiterID: iv.RecruiterID,
	}
	if d := s.Engine.Check(p, authz.ActionCreate, proposed); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityInterview, authz.ActionCreate, d.Reason)
	}
	if iv.RecruiterID == "" {
		iv.RecruiterID = p.ID
	}

	if err := s.Store.CreateInterview(ctx, iv); err != nil {
		return nil, err
	}

	s.Notifier.Publish(ctx, Event{
		AccountID: parties.CandidateID,
		Kind:      "interview_scheduled",
		EntityID:  iv.ID,
		Message:   fmt.Sprintf("Interview scheduled for %s", iv.ScheduledDate.Format(time.RFC1123)),
	})
	return iv, nil
}

func (s *InterviewService) Get(ctx context.Context, p authz.Principal, id string) (*db.Interview, error) {
	iv, parties, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.Engine.Check(p, authz.ActionRead, interviewResource(iv, parties)); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityInterview, authz.ActionRead, d.Reason)
	}
	return iv, nil
}

func (s *InterviewService) List(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Interview, error) {
	plan, err := s.Engine.Scope(p, authz.EntityInterview, req)
	if err != nil {
		return nil, err
	}
	return s.Store.ListInterviews(ctx, plan)
}

// ListMine returns the interviews the caller participates in: candidates
// through the application chain, everyone else as the scheduling recruiter.
func (s *InterviewService) ListMine(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Interview, error) {
	if req.Filters == nil {
		req.Filters = make(map[string]string)
	}
	if p.Role == authz.RoleCandidate {
		req.Filters["candidate_id"] = p.ID
	} else {
		req.Filters["recruiter_id"] = p.ID
	}
	return s.List(ctx, p, req)
}

func (s *InterviewService) Update(ctx context.Context, p authz.Principal, id string, changes map[string]any) (*db.Interview, error) {
	iv, parties, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := interviewResource(iv, parties)
	if d := s.Engine.Check(p, authz.ActionUpdate, r); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityInterview, authz.ActionUpdate, d.Reason)
	}
	clean, err := s.Engine.Sanitize(p, r, changes)
	if err != nil {
		return nil, err
	}
	if status, ok := clean["status"].(string); ok && !db.ValidInterviewStatus(status) {
		return nil, &authz.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	if err := s.Store.UpdateInterview(ctx, id, clean); err != nil {
		return nil, err
	}
	return s.Store.GetInterview(ctx, id)
}

func (s *InterviewService) Delete(ctx context.Context, p authz.Principal, id string) error {
	iv, parties, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if d := s.Engine.Check(p, authz.ActionDelete, interviewResource(iv, parties)); !d.Allowed {
		return authz.Forbidden(authz.EntityInterview, authz.ActionDelete, d.Reason)
	}
	return s.Store.DeleteInterview(ctx, id)
}

func (s *InterviewService) load(ctx context.Context, id string) (*db.Interview, *store.Parties, error) {
	iv, err := s.Store.GetInterview(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	parties, err := s.Store.InterviewParties(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return iv, parties, nil
}
