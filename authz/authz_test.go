package authz

import (
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(20, 100)
}

// principals used across the authorization tests
var (
	admin       = Principal{ID: "adm-1", Role: RoleAdmin, Status: StatusActive}
	recruiter   = Principal{ID: "rec-1", Role: RoleRecruiter, Status: StatusActive}
	candidate   = Principal{ID: "can-1", Role: RoleCandidate, Status: StatusActive}
	suspended   = Principal{ID: "rec-2", Role: RoleRecruiter, Status: StatusSuspended}
	inactive    = Principal{ID: "can-2", Role: RoleCandidate, Status: StatusInactive}
	unknownRole = Principal{ID: "x-1", Role: Role("ghost"), Status: StatusActive}
)

// owned returns a resource whose ownership chain points at the given ids.
func owned(entity Entity, owner, cand, rec string) Resource {
	return Resource{Entity: entity, ID: "res-1", OwnerID: owner, CandidateID: cand, RecruiterID: rec}
}

func TestCheckMatrix(t *testing.T) {
	e := newTestEngine()

	// Exhaustive (role, entity, action, ownership) matrix. "owns" means the
	// resource's ownership fields match the principal; "other" means they
	// point at somebody else.
	tests := []struct {
		name   string
		p      Principal
		action Action
		res    Resource
		want   bool
	}{
		// admin: everything allowed, ownership irrelevant
		{"admin read posting", admin, ActionRead, owned(EntityPosting, "rec-9", "", ""), true},
		{"admin update posting", admin, ActionUpdate, owned(EntityPosting, "rec-9", "", ""), true},
		{"admin delete posting", admin, ActionDelete, owned(EntityPosting, "rec-9", "", ""), true},
		{"admin read application", admin, ActionRead, owned(EntityApplication, "rec-9", "can-9", ""), true},
		{"admin update application", admin, ActionUpdate, owned(EntityApplication, "rec-9", "can-9", ""), true},
		{"admin delete application", admin, ActionDelete, owned(EntityApplication, "rec-9", "can-9", ""), true},
		{"admin read interview", admin, ActionRead, owned(EntityInterview, "rec-9", "can-9", "rec-9"), true},
		{"admin update interview", admin, ActionUpdate, owned(EntityInterview, "rec-9", "can-9", "rec-9"), true},
		{"admin delete interview", admin, ActionDelete, owned(EntityInterview, "rec-9", "can-9", "rec-9"), true},
		{"admin create interview for other recruiter", admin, ActionCreate, owned(EntityInterview, "rec-9", "can-9", "rec-9"), true},

		// recruiter × posting
		{"recruiter read any posting", recruiter, ActionRead, owned(EntityPosting, "rec-9", "", ""), true},
		{"recruiter update own posting", recruiter, ActionUpdate, owned(EntityPosting, "rec-1", "", ""), true},
		{"recruiter update other posting", recruiter, ActionUpdate, owned(EntityPosting, "rec-9", "", ""), false},
		{"recruiter delete own posting", recruiter, ActionDelete, owned(EntityPosting, "rec-1", "", ""), true},
		{"recruiter delete other posting", recruiter, ActionDelete, owned(EntityPosting, "rec-9", "", ""), false},
		{"recruiter create posting", recruiter, ActionCreate, owned(EntityPosting, "rec-1", "", ""), true},
		{"recruiter create posting unset owner", recruiter, ActionCreate, owned(EntityPosting, "", "", ""), true},
		{"recruiter create posting for other owner", recruiter, ActionCreate, owned(EntityPosting, "rec-9", "", ""), false},

		// recruiter × application (visibility through posting ownership)
		{"recruiter read application under own posting", recruiter, ActionRead, owned(EntityApplication, "rec-1", "can-9", ""), true},
		{"recruiter read application under other posting", recruiter, ActionRead, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"recruiter update application under own posting", recruiter, ActionUpdate, owned(EntityApplication, "rec-1", "can-9", ""), true},
		{"recruiter update application under other posting", recruiter, ActionUpdate, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"recruiter delete application under own posting", recruiter, ActionDelete, owned(EntityApplication, "rec-1", "can-9", ""), true},
		{"recruiter delete application under other posting", recruiter, ActionDelete, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"recruiter create application denied", recruiter, ActionCreate, owned(EntityApplication, "rec-1", "can-9", ""), false},

		// recruiter × interview
		{"recruiter read own interview", recruiter, ActionRead, owned(EntityInterview, "rec-1", "can-9", "rec-1"), true},
		{"recruiter read other interview", recruiter, ActionRead, owned(EntityInterview, "rec-9", "can-9", "rec-9"), false},
		{"recruiter update own interview", recruiter, ActionUpdate, owned(EntityInterview, "rec-1", "can-9", "rec-1"), true},
		{"recruiter update other interview", recruiter, ActionUpdate, owned(EntityInterview, "rec-9", "can-9", "rec-9"), false},
		{"recruiter delete own interview", recruiter, ActionDelete, owned(EntityInterview, "rec-1", "can-9", "rec-1"), true},
		{"recruiter delete other interview", recruiter, ActionDelete, owned(EntityInterview, "rec-9", "can-9", "rec-9"), false},
		{"recruiter create interview under own posting", recruiter, ActionCreate, owned(EntityInterview, "rec-1", "can-9", "rec-1"), true},
		{"recruiter create interview unset recruiter", recruiter, ActionCreate, owned(EntityInterview, "rec-1", "can-9", ""), true},
		{"recruiter create interview under other posting", recruiter, ActionCreate, owned(EntityInterview, "rec-9", "can-9", "rec-1"), false},
		{"recruiter create interview assigned to other recruiter", recruiter, ActionCreate, owned(EntityInterview, "rec-1", "can-9", "rec-9"), false},

		// candidate × posting
		{"candidate read any posting", candidate, ActionRead, owned(EntityPosting, "rec-9", "", ""), true},
		{"candidate create posting denied", candidate, ActionCreate, owned(EntityPosting, "", "", ""), false},
		{"candidate update posting denied", candidate, ActionUpdate, owned(EntityPosting, "rec-9", "", ""), false},
		{"candidate delete posting denied", candidate, ActionDelete, owned(EntityPosting, "rec-9", "", ""), false},

		// candidate × application
		{"candidate read own application", candidate, ActionRead, owned(EntityApplication, "rec-9", "can-1", ""), true},
		{"candidate read other application", candidate, ActionRead, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"candidate create own application", candidate, ActionCreate, owned(EntityApplication, "rec-9", "can-1", ""), true},
		{"candidate create application unset candidate", candidate, ActionCreate, owned(EntityApplication, "rec-9", "", ""), true},
		{"candidate create application for other candidate", candidate, ActionCreate, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"candidate update own application", candidate, ActionUpdate, owned(EntityApplication, "rec-9", "can-1", ""), true},
		{"candidate update other application", candidate, ActionUpdate, owned(EntityApplication, "rec-9", "can-9", ""), false},
		{"candidate delete own application", candidate, ActionDelete, owned(EntityApplication, "rec-9", "can-1", ""), true},
		{"candidate delete other application", candidate, ActionDelete, owned(EntityApplication, "rec-9", "can-9", ""), false},

		// candidate × interview (read-only through application ownership)
		{"candidate read own interview", candidate, ActionRead, owned(EntityInterview, "rec-9", "can-1", "rec-9"), true},
		{"candidate read other interview", candidate, ActionRead, owned(EntityInterview, "rec-9", "can-9", "rec-9"), false},
		{"candidate create interview denied", candidate, ActionCreate, owned(EntityInterview, "rec-9", "can-1", ""), false},
		{"candidate update interview denied", candidate, ActionUpdate, owned(EntityInterview, "rec-9", "can-1", "rec-9"), false},
		{"candidate delete interview denied", candidate, ActionDelete, owned(EntityInterview, "rec-9", "can-1", "rec-9"), false},

		// non-active principals are denied everything
		{"suspended recruiter read own posting", suspended, ActionRead, owned(EntityPosting, "rec-2", "", ""), false},
		{"inactive candidate read own application", inactive, ActionRead, owned(EntityApplication, "rec-9", "can-2", ""), false},

		// unknown role
		{"unknown role read posting", unknownRole, ActionRead, owned(EntityPosting, "rec-9", "", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Check(tt.p, tt.action, tt.res)
			if got.Allowed != tt.want {
				t.Errorf("Check() = %v (reason %q), want allowed=%v", got.Allowed, got.Reason, tt.want)
			}
			if !got.Allowed && got.Reason == "" {
				t.Error("Deny decision must carry a reason")
			}
		})
	}
}

// A candidate can never read an application whose candidate_id differs from
// their own, no matter what the other resource fields claim.
func TestCandidateCannotReadForeignApplication(t *testing.T) {
	e := newTestEngine()
	others := []Resource{
		owned(EntityApplication, "", "can-9", ""),
		owned(EntityApplication, "can-1", "can-9", "can-1"), // identity smuggled into unrelated fields
		owned(EntityApplication, "rec-1", "", ""),
	}
	for _, res := range others {
		if dec := e.Check(candidate, ActionRead, res); dec.Allowed {
			t.Errorf("candidate allowed to read application with candidate_id %q", res.CandidateID)
		}
	}
}

func TestPolicyTableLookup(t *testing.T) {
	if _, ok := LookupRule(RoleCandidate, EntityInterview, ActionUpdate); ok {
		t.Error("candidate must not have an interview update rule")
	}
	if _, ok := LookupRule(RoleRecruiter, EntityApplication, ActionCreate); ok {
		t.Error("recruiter must not have an application create rule")
	}
	rule, ok := LookupRule(RoleRecruiter, EntityApplication, ActionUpdate)
	if !ok {
		t.Fatal("recruiter application update rule missing")
	}
	if len(rule.Writable) != 2 || rule.Writable[0] != "status" || rule.Writable[1] != "notes" {
		t.Errorf("recruiter application writable = %v, want [status notes]", rule.Writable)
	}
}
