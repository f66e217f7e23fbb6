package authz

import "fmt"

// Check evaluates a requested action against the policy table and a concrete
// resource, returning Allow or Deny with a reason. It is a pure function of
// its arguments: no I/O, deterministic, side-effect free.
//
// For ActionCreate the resource describes the proposed object; ownership
// fields supplied by the caller are checked against the principal's own id so
// a create payload can never smuggle in somebody else's identity. For all
// other actions the resource is the persisted instance with its ownership
// chain resolved.
//
// The decision is purely advisory: callers perform the action through the
// storage collaborator only after receiving Allow.
func (e *Engine) Check(p Principal, action Action, r Resource) Decision {
	if !p.Active() {
		return deny(fmt.Sprintf("account is %s", p.Status))
	}

	rule, ok := LookupRule(p.Role, r.Entity, action)
	if !ok {
		return deny(fmt.Sprintf("role %s may not %s %s", p.Role, action, r.Entity))
	}

	if action == ActionCreate {
		return e.checkCreate(p, r)
	}

	if !rule.Visible(p, r) {
		return deny(notOwnedReason(p.Role, r.Entity))
	}
	return allow()
}

// checkCreate validates a proposed object. The principal's own id is the only
// identity a non-admin may occupy in the new resource; admins may create on
// behalf of others.
func (e *Engine) checkCreate(p Principal, r Resource) Decision {
	if p.Role == RoleAdmin {
		return allow()
	}

	switch r.Entity {
	case EntityPosting:
		if r.OwnerID != "" && r.OwnerID != p.ID {
			return deny("cannot create a posting owned by another recruiter")
		}
	case EntityApplication:
		if r.CandidateID != "" && r.CandidateID != p.ID {
			return deny("cannot apply on behalf of another candidate")
		}
	case EntityInterview:
		if r.RecruiterID != "" && r.RecruiterID != p.ID {
			return deny("cannot assign an interview to another recruiter")
		}
		// An interview must sit under the recruiter's own posting chain.
		if r.OwnerID != p.ID {
			return deny("application belongs to another recruiter's posting")
		}
	default:
		return deny(fmt.Sprintf("unknown entity %q", r.Entity))
	}
	return allow()
}

func notOwnedReason(role Role, entity Entity) string {
	switch role {
	case RoleCandidate:
		return fmt.Sprintf("%s belongs to another candidate", entity)
	default:
		return fmt.Sprintf("%s belongs to another recruiter", entity)
	}
}
