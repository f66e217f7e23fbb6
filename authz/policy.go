package authz

// Rule is one cell of the policy table: a visibility predicate over
// (principal, resource) plus the set of fields the role may write. Predicates
// are pure functions; scopeConditions derives the equivalent storage-level
// conditions so the two views cannot drift apart per role.
type Rule struct {
	Visible  func(p Principal, r Resource) bool
	Writable []string
}

// Predicates shared across the table.
func visibleAlways(Principal, Resource) bool     { return true }
func ownsChain(p Principal, r Resource) bool     { return r.OwnerID == p.ID }
func isCandidate(p Principal, r Resource) bool   { return r.CandidateID == p.ID }
func isInterviewer(p Principal, r Resource) bool { return r.RecruiterID == p.ID }

// Writable-field sets. Identifiers and audit timestamps are immutable for
// everyone, admin included.
var (
	postingFields              = []string{"title", "company", "location", "type", "salary", "description"}
	applicationCandidateFields = []string{"cover_letter", "attachment_ref", "phone", "location"}
	applicationRecruiterFields = []string{"status", "notes"}
	applicationAdminFields     = []string{"cover_letter", "attachment_ref", "phone", "location", "status", "notes"}
	interviewRecruiterFields   = []string{"status", "notes"}
	interviewAdminFields       = []string{"status", "notes", "feedback", "score", "scheduled_date", "duration_minutes", "location"}
)

// PolicyTable is the static mapping keyed by (role, entity, action). It is
// constructed once at package initialization and never mutated; absence of a
// cell means the action is denied outright for that role.
var PolicyTable = map[Role]map[Entity]map[Action]Rule{
	RoleAdmin: {
		EntityPosting: {
			ActionRead:   {Visible: visibleAlways},
			ActionCreate: {Visible: visibleAlways},
			ActionUpdate: {Visible: visibleAlways, Writable: postingFields},
			ActionDelete: {Visible: visibleAlways},
		},
		EntityApplication: {
			ActionRead:   {Visible: visibleAlways},
			ActionCreate: {Visible: visibleAlways},
			ActionUpdate: {Visible: visibleAlways, Writable: applicationAdminFields},
			ActionDelete: {Visible: visibleAlways},
		},
		EntityInterview: {
			ActionRead:   {Visible: visibleAlways},
			ActionCreate: {Visible: visibleAlways},
			ActionUpdate: {Visible: visibleAlways, Writable: interviewAdminFields},
			ActionDelete: {Visible: visibleAlways},
		},
	},
	RoleRecruiter: {
		EntityPosting: {
			// Postings are globally listable; writes require ownership.
			ActionRead:   {Visible: visibleAlways},
			ActionCreate: {Visible: ownsChain},
			ActionUpdate: {Visible: ownsChain, Writable: postingFields},
			ActionDelete: {Visible: ownsChain},
		},
		EntityApplication: {
			ActionRead:   {Visible: ownsChain},
			ActionUpdate: {Visible: ownsChain, Writable: applicationRecruiterFields},
			ActionDelete: {Visible: ownsChain},
		},
		EntityInterview: {
			ActionRead:   {Visible: isInterviewer},
			ActionCreate: {Visible: ownsChain},
			ActionUpdate: {Visible: isInterviewer, Writable: interviewRecruiterFields},
			ActionDelete: {Visible: isInterviewer},
		},
	},
	RoleCandidate: {
		EntityPosting: {
			ActionRead: {Visible: visibleAlways},
		},
		EntityApplication: {
			ActionRead: {Visible: isCandidate},
			// Creation is open to any candidate; the (posting_id, candidate_id)
			// uniqueness invariant is enforced atomically by the storage layer.
			ActionCreate: {Visible: isCandidate},
			ActionUpdate: {Visible: isCandidate, Writable: applicationCandidateFields},
			ActionDelete: {Visible: isCandidate},
		},
		EntityInterview: {
			// Read-only, through application ownership.
			ActionRead: {Visible: isCandidate},
		},
	},
}

// LookupRule returns the policy cell for (role, entity, action).
func LookupRule(role Role, entity Entity, action Action) (Rule, bool) {
	entities, ok := PolicyTable[role]
	if !ok {
		return Rule{}, false
	}
	actions, ok := entities[entity]
	if !ok {
		return Rule{}, false
	}
	rule, ok := actions[action]
	return rule, ok
}

// ===========================
// LISTING ALLOW-LISTS
// ===========================

// MatchKind says how a caller-supplied filter value is compared.
type MatchKind int

const (
	MatchEquals MatchKind = iota
	MatchSubstring
)

// FilterableFields is the per-entity allow-list of caller filters. Filters on
// fields outside this list are rejected with a validation error, never
// silently dropped. posting_recruiter_id and candidate_id resolve through the
// ownership chain; the storage layer compiles them into joins.
var FilterableFields = map[Entity]map[string]MatchKind{
	EntityPosting: {
		"title":        MatchSubstring,
		"company":      MatchSubstring,
		"location":     MatchSubstring,
		"type":         MatchEquals,
		"recruiter_id": MatchEquals,
	},
	EntityApplication: {
		"posting_id":           MatchEquals,
		"candidate_id":         MatchEquals,
		"status":               MatchEquals,
		"posting_recruiter_id": MatchEquals,
	},
	EntityInterview: {
		"application_id": MatchEquals,
		"recruiter_id":   MatchEquals,
		"candidate_id":   MatchEquals,
		"status":         MatchEquals,
	},
}

// SortableFields is the per-entity allow-list of sort keys. Requests naming
// any other field fall back to DefaultSort; that fallback is a documented
// contract, not an error.
var SortableFields = map[Entity]map[string]bool{
	EntityPosting:     {"posted_date": true, "title": true, "company": true, "location": true},
	EntityApplication: {"applied_at": true, "status": true, "updated_at": true},
	EntityInterview:   {"scheduled_date": true, "status": true, "created_at": true},
}

// DefaultSort is the documented default sort per entity.
var DefaultSort = map[Entity]SortKey{
	EntityPosting:     {Field: "posted_date", Desc: true},
	EntityApplication: {Field: "applied_at", Desc: true},
	EntityInterview:   {Field: "scheduled_date", Desc: false},
}

// SearchFields lists the columns covered by a free-text substring search, for
// the entities that support one.
var SearchFields = map[Entity][]string{
	EntityPosting: {"title", "description", "company"},
}

// scopeConditions derives the mandatory visibility conditions for a listing
// by (role, entity). These are ANDed into every query plan and can never be
// weakened by caller filters.
func scopeConditions(p Principal, entity Entity) []Condition {
	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleRecruiter:
		switch entity {
		case EntityPosting:
			return nil // globally listable
		case EntityApplication:
			return []Condition{{Field: "posting_recruiter_id", Op: OpEquals, Value: p.ID}}
		case EntityInterview:
			return []Condition{{Field: "recruiter_id", Op: OpEquals, Value: p.ID}}
		}
	case RoleCandidate:
		switch entity {
		case EntityPosting:
			return nil
		case EntityApplication:
			return []Condition{{Field: "candidate_id", Op: OpEquals, Value: p.ID}}
		case EntityInterview:
			return []Condition{{Field: "candidate_id", Op: OpEquals, Value: p.ID}}
		}
	}
	return nil
}
