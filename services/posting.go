package services

import (
	"context"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

// PostingService runs posting operations through the policy engine before
// touching storage.
type PostingService struct {
	Store  store.Store
	Engine *authz.Engine
}

func NewPostingService(st store.Store, engine *authz.Engine) *PostingService {
	return &PostingService{Store: st, Engine: engine}
}

func postingResource(p *db.Posting) authz.Resource {
	return authz.Resource{
		Entity:      authz.EntityPosting,
		ID:          p.ID,
		OwnerID:     p.RecruiterID,
		RecruiterID: p.RecruiterID,
	}
}

// Create publishes a new posting owned by the principal. An empty
// recruiter_id in the payload defaults to the caller; any other value is a
// spoof attempt and gets denied (admins excepted).
func (s *PostingService) Create(ctx context.Context, p authz.Principal, posting *db.Posting) (*db.Posting, error) {
	if d := s.Engine.Check(p, authz.ActionCreate, postingResource(posting)); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityPosting, authz.ActionCreate, d.Reason)
	}
	if posting.RecruiterID == "" {
		posting.RecruiterID = p.ID
	}
	if err := s.Store.CreatePosting(ctx, posting); err != nil {
		return nil, err
	}
	return posting, nil
}

func (s *PostingService) Get(ctx context.Context, p authz.Principal, id string) (*db.Posting, error) {
	posting, err := s.Store.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.Engine.Check(p, authz.ActionRead, postingResource(posting)); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityPosting, authz.ActionRead, d.Reason)
	}
	return posting, nil
}

func (s *PostingService) List(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Posting, error) {
	plan, err := s.Engine.Scope(p, authz.EntityPosting, req)
	if err != nil {
		return nil, err
	}
	return s.Store.ListPostings(ctx, plan)
}

// ListMine returns the postings owned by the caller. Postings are globally
// listable, so this is the one listing that needs a forced self filter;
// candidates own none and are refused outright.
func (s *PostingService) ListMine(ctx context.Context, p authz.Principal, req authz.ListRequest) ([]db.Posting, error) {
	if p.Role != authz.RoleRecruiter && p.Role != authz.RoleAdmin {
		return nil, authz.Forbidden(authz.EntityPosting, authz.ActionRead, "role cannot own postings")
	}
	if req.Filters == nil {
		req.Filters = make(map[string]string)
	}
	req.Filters["recruiter_id"] = p.ID
	return s.List(ctx, p, req)
}

func (s *PostingService) Update(ctx context.Context, p authz.Principal, id string, changes map[string]any) (*db.Posting, error) {
	posting, err := s.Store.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	r := postingResource(posting)
	if d := s.Engine.Check(p, authz.ActionUpdate, r); !d.Allowed {
		return nil, authz.Forbidden(authz.EntityPosting, authz.ActionUpdate, d.Reason)
	}
	clean, err := s.Engine.Sanitize(p, r, changes)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdatePosting(ctx, id, clean); err != nil {
		return nil, err
	}
	return s.Store.GetPosting(ctx, id)
}

func (s *PostingService) Delete(ctx context.Context, p authz.Principal, id string) error {
	posting, err := s.Store.GetPosting(ctx, id)
	if err != nil {
		return err
	}
	if d := s.Engine.Check(p, authz.ActionDelete, postingResource(posting)); !d.Allowed {
		return authz.Forbidden(authz.EntityPosting, authz.ActionDelete, d.Reason)
	}
	return s.Store.DeletePosting(ctx, id)
}
