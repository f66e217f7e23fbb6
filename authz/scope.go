package authz

import "fmt"

// Op is a comparison operator in a compiled query condition.
type Op string

const (
	OpEquals    Op = "eq"
	OpSubstring Op = "substr" // case-insensitive containment
)

// Condition is one storage-level predicate. Conditions in a QueryPlan are
// always AND-combined.
type Condition struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value string `json:"value"`
}

// SortKey names a sort column and direction.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// ListRequest is a caller-supplied listing request: free-form filters, an
// optional free-text search, a sort key, and pagination. All fields are
// untrusted input.
type ListRequest struct {
	Filters   map[string]string `json:"filters,omitempty"`
	Search    string            `json:"search,omitempty"`
	SortBy    string            `json:"sort_by,omitempty"`
	SortOrder string            `json:"sort_order,omitempty"` // "asc" or "desc"
	Offset    int               `json:"offset"`
	Limit     int               `json:"limit"`
}

// QueryPlan is the fully merged, safe filter/sort/pagination specification
// handed to the storage collaborator. Mandatory holds the visibility
// conditions derived from the policy table; Filters holds the caller's
// narrowing conditions. The store ANDs both groups.
type QueryPlan struct {
	Entity       Entity      `json:"entity"`
	Mandatory    []Condition `json:"mandatory,omitempty"`
	Filters      []Condition `json:"filters,omitempty"`
	SearchTerm   string      `json:"search_term,omitempty"`
	SearchFields []string    `json:"search_fields,omitempty"`
	Sort         []SortKey   `json:"sort"`
	Offset       int         `json:"offset"`
	Limit        int         `json:"limit"`
}

// Scope merges the mandatory ownership/visibility filter for (principal,
// entity) with the caller's filters, producing one fully-specified query
// plan.
//
// The mandatory filter is AND semantics and can never be weakened: a caller
// filter that tries to set a scoped field to any other value is rejected with
// Forbidden rather than silently overridden. Filters on fields outside the
// entity's allow-list fail with a validation error. An unrecognized sort
// field falls back to the entity's documented default; that is a contract,
// not an omission. The limit is clamped to the engine's configured maximum
// and a stable id-ascending tie-break is always appended so repeated calls
// over unchanged data return identical page boundaries.
func (e *Engine) Scope(p Principal, entity Entity, req ListRequest) (*QueryPlan, error) {
	if !p.Active() {
		return nil, Forbidden(entity, ActionRead, fmt.Sprintf("account is %s", p.Status))
	}
	if _, ok := LookupRule(p.Role, entity, ActionRead); !ok {
		return nil, Forbidden(entity, ActionRead, fmt.Sprintf("role %s may not read %s", p.Role, entity))
	}

	allowed, ok := FilterableFields[entity]
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown entity %q", entity)}
	}

	mandatory := scopeConditions(p, entity)
	pinned := make(map[string]string, len(mandatory))
	for _, c := range mandatory {
		pinned[c.Field] = c.Value
	}

	var filters []Condition
	for field, value := range req.Filters {
		kind, ok := allowed[field]
		if !ok {
			return nil, &ValidationError{Field: field, Reason: "not filterable for " + string(entity)}
		}
		if want, scoped := pinned[field]; scoped {
			if value != want {
				return nil, Forbidden(entity, ActionRead,
					fmt.Sprintf("filter on %s conflicts with mandatory scope", field))
			}
			continue // already enforced by the mandatory condition
		}
		op := OpEquals
		if kind == MatchSubstring {
			op = OpSubstring
		}
		filters = append(filters, Condition{Field: field, Op: op, Value: value})
	}

	plan := &QueryPlan{
		Entity:    entity,
		Mandatory: mandatory,
		Filters:   filters,
	}

	if req.Search != "" {
		fields, ok := SearchFields[entity]
		if !ok {
			return nil, &ValidationError{Field: "search", Reason: "not supported for " + string(entity)}
		}
		plan.SearchTerm = req.Search
		plan.SearchFields = fields
	}

	plan.Sort = e.resolveSort(entity, req.SortBy, req.SortOrder)

	offset, limit, err := e.pageBounds(req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}
	plan.Offset = offset
	plan.Limit = limit

	return plan, nil
}

// resolveSort picks the primary sort key and appends the id tie-break.
func (e *Engine) resolveSort(entity Entity, sortBy, sortOrder string) []SortKey {
	primary := DefaultSort[entity]
	if sortBy != "" && SortableFields[entity][sortBy] {
		primary = SortKey{Field: sortBy, Desc: sortOrder == "desc"}
	}
	if primary.Field == "id" {
		return []SortKey{primary}
	}
	return []SortKey{primary, {Field: "id", Desc: false}}
}

func (e *Engine) pageBounds(offset, limit int) (int, int, error) {
	if offset < 0 {
		return 0, 0, &ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	if limit < 0 {
		return 0, 0, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if limit == 0 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}
	return offset, limit, nil
}
