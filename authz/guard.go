package authz

import (
	"fmt"
	"sort"

	"github.com/talenthubhq/talenthub/db"
)

// Sanitize partitions the requested changes into the writable-field set for
// (principal.role, entity). If any requested field falls outside that set the
// whole update fails with a RejectedFieldsError naming the offenders; the
// guard never silently drops fields. State-machine restrictions (candidate
// edits only while the application is pending, no transitions out of a
// terminal status) surface as InvalidStateError.
//
// On success the change-set is returned unchanged. Sanitize assumes the
// caller has already obtained Allow from Check for ActionUpdate on the same
// resource.
func (e *Engine) Sanitize(p Principal, r Resource, changes map[string]any) (map[string]any, error) {
	if len(changes) == 0 {
		return nil, &ValidationError{Reason: "no changes requested"}
	}

	rule, ok := LookupRule(p.Role, r.Entity, ActionUpdate)
	if !ok {
		return nil, Forbidden(r.Entity, ActionUpdate,
			fmt.Sprintf("role %s may not update %s", p.Role, r.Entity))
	}

	writable := make(map[string]bool, len(rule.Writable))
	for _, f := range rule.Writable {
		writable[f] = true
	}

	var rejected []string
	for field := range changes {
		if !writable[field] {
			rejected = append(rejected, field)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected) // deterministic error output
		return nil, &RejectedFieldsError{Entity: r.Entity, Fields: rejected}
	}

	if err := checkEditState(p, r, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// checkEditState enforces lifecycle restrictions that the writable-field sets
// alone cannot express.
func checkEditState(p Principal, r Resource, changes map[string]any) error {
	if r.Entity != EntityApplication {
		return nil
	}

	// Candidates may only edit while the application is still pending.
	if p.Role == RoleCandidate && r.Status != db.ApplicationPending {
		return &InvalidStateError{
			Entity: r.Entity,
			Status: r.Status,
			Reason: "candidate edits are only permitted while pending",
		}
	}

	// A terminal application accepts no further status transitions. Admins
	// keep the escape hatch for manual correction.
	if _, touchesStatus := changes["status"]; touchesStatus && p.Role != RoleAdmin {
		if db.TerminalApplicationStatus(r.Status) {
			return &InvalidStateError{
				Entity: r.Entity,
				Status: r.Status,
				Reason: "status is terminal",
			}
		}
	}
	return nil
}
