// Package authz is the access policy and query scoping engine.
// It decides, for every read or write on every entity, what a given principal
// may see and change. The package is split into separated concerns:
// - Policy table: static (role, entity, action) rules, built once, never mutated
// - Engine.Check: evaluates an action against a concrete resource
// - Engine.Scope: compiles a safe filter/sort/pagination plan for listings
// - Engine.Sanitize: partitions update payloads into allowed/rejected fields
//
// Everything here is pure computation over in-memory arguments: no I/O, no
// retries, no storage access. Callers hand the resulting decisions and query
// plans to the storage layer.
package authz

// Role represents a principal's role on the platform
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// Status represents an account status. Only active principals act.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Action represents an operation that can be performed on a resource
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity represents the type of resource being accessed
type Entity string

const (
	EntityPosting     Entity = "posting"
	EntityApplication Entity = "application"
	EntityInterview   Entity = "interview"
)

// Principal is the authenticated actor making a request. It is resolved by
// the external identity collaborator; the engine trusts role and id verbatim.
type Principal struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// Active reports whether the principal's account may act at all.
func (p Principal) Active() bool {
	return p.Status == StatusActive
}

// Resource is the engine's view of a concrete entity instance with its
// ownership chain already resolved. For create, it describes the proposed
// object; for read/update/delete, the persisted one.
//
// OwnerID is the recruiter controlling the root posting of the chain
// (Posting.RecruiterID, Application→Posting, Interview→Application→Posting).
// CandidateID and RecruiterID are the direct identity fields of applications
// and interviews; Status carries the entity's lifecycle state where relevant.
type Resource struct {
	Entity      Entity
	ID          string
	OwnerID     string
	CandidateID string
	RecruiterID string
	Status      string
}

// Decision is the engine's answer to a Check call. Deny decisions always
// carry a reason precise enough to render a user-facing message without
// re-deriving policy in the caller.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Engine evaluates authorization checks, compiles query plans, and sanitizes
// mutation payloads against the static policy table. It is stateless apart
// from pagination configuration and safe for concurrent use.
type Engine struct {
	defaultLimit int
	maxLimit     int
}

// NewEngine creates an Engine with the given pagination bounds. Listings that
// do not name a limit get defaultLimit; requested limits are clamped to
// maxLimit so no caller can produce an unbounded result set.
func NewEngine(defaultLimit, maxLimit int) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Engine{defaultLimit: defaultLimit, maxLimit: maxLimit}
}
