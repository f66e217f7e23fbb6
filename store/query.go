package store

import (
	"fmt"
	"strings"

	"github.com/talenthubhq/talenthub/authz"
)

// ============================================================================
// Query plan compilation
// ============================================================================

// joinClause brings a filter field that lives on a parent table into reach.
type joinClause struct {
	sql  string // JOIN fragment, added at most once
	expr string // qualified column expression
}

// entitySpec maps a plan entity onto its table, selectable columns and the
// column expression behind each filter/sort field. Fields resolved through
// the ownership chain carry the join that makes them addressable.
type entitySpec struct {
	table   string
	columns []string
	fields  map[string]string
	joins   map[string]joinClause
}

var entitySpecs = map[authz.Entity]entitySpec{
	authz.EntityPosting: {
		table: "postings p",
		columns: []string{
			"p.id", "p.recruiter_id", "p.title", "p.company", "p.location",
			"p.type", "p.salary", "p.description", "p.posted_date",
		},
		fields: map[string]string{
			"id":           "p.id",
			"recruiter_id": "p.recruiter_id",
			"title":        "p.title",
			"company":      "p.company",
			"location":     "p.location",
			"type":         "p.type",
			"description":  "p.description",
			"posted_date":  "p.posted_date",
		},
	},
	authz.EntityApplication: {
		table: "applications a",
		columns: []string{
			"a.id", "a.posting_id", "a.candidate_id", "a.cover_letter",
			"a.attachment_ref", "a.phone", "a.location", "a.status",
			"a.notes", "a.applied_at", "a.updated_at",
		},
		fields: map[string]string{
			"id":           "a.id",
			"posting_id":   "a.posting_id",
			"candidate_id": "a.candidate_id",
			"status":       "a.status",
			"applied_at":   "a.applied_at",
			"updated_at":   "a.updated_at",
		},
		joins: map[string]joinClause{
			"posting_recruiter_id": {
				sql:  "JOIN postings p ON p.id = a.posting_id",
				expr: "p.recruiter_id",
			},
		},
	},
	authz.EntityInterview: {
		table: "interviews i",
		columns: []string{
			"i.id", "i.application_id", "i.recruiter_id", "i.scheduled_date",
			"i.duration_minutes", "i.location", "i.status", "i.notes",
			"i.feedback", "i.score", "i.created_at", "i.updated_at",
		},
		fields: map[string]string{
			"id":             "i.id",
			"application_id": "i.application_id",
			"recruiter_id":   "i.recruiter_id",
			"status":         "i.status",
			"scheduled_date": "i.scheduled_date",
			"created_at":     "i.created_at",
		},
		joins: map[string]joinClause{
			"candidate_id": {
				sql:  "JOIN applications a ON a.id = i.application_id",
				expr: "a.candidate_id",
			},
		},
	},
}

// buildListQuery compiles a query plan into one SELECT with positional
// arguments. Mandatory and caller conditions are ANDed in plan order, search
// expands to an OR group over the entity's search columns, and the plan's
// sort keys carry the id tie-break already appended by the engine.
func buildListQuery(plan *authz.QueryPlan) (string, []any, error) {
	spec, ok := entitySpecs[plan.Entity]
	if !ok {
		return "", nil, fmt.Errorf("no table mapping for entity %q", plan.Entity)
	}

	var (
		joins []string
		where []string
		args  []any
	)
	joined := map[string]bool{}

	resolve := func(field string) (string, error) {
		if expr, ok := spec.fields[field]; ok {
			return expr, nil
		}
		if j, ok := spec.joins[field]; ok {
			if !joined[j.sql] {
				joined[j.sql] = true
				joins = append(joins, j.sql)
			}
			return j.expr, nil
		}
		return "", fmt.Errorf("field %q has no column mapping for %s", field, plan.Entity)
	}

	addCondition := func(c authz.Condition) error {
		expr, err := resolve(c.Field)
		if err != nil {
			return err
		}
		switch c.Op {
		case authz.OpEquals:
			args = append(args, c.Value)
			where = append(where, fmt.Sprintf("%s = $%d", expr, len(args)))
		case authz.OpSubstring:
			args = append(args, "%"+c.Value+"%")
			where = append(where, fmt.Sprintf("%s ILIKE $%d", expr, len(args)))
		default:
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
		return nil
	}

	for _, c := range plan.Mandatory {
		if err := addCondition(c); err != nil {
			return "", nil, err
		}
	}
	for _, c := range plan.Filters {
		if err := addCondition(c); err != nil {
			return "", nil, err
		}
	}

	if plan.SearchTerm != "" && len(plan.SearchFields) > 0 {
		args = append(args, "%"+plan.SearchTerm+"%")
		n := len(args)
		var group []string
		for _, field := range plan.SearchFields {
			expr, err := resolve(field)
			if err != nil {
				return "", nil, err
			}
			group = append(group, fmt.Sprintf("%s ILIKE $%d", expr, n))
		}
		where = append(where, "("+strings.Join(group, " OR ")+")")
	}

	var order []string
	for _, k := range plan.Sort {
		expr, err := resolve(k.Field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		order = append(order, expr+" "+dir)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(spec.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(spec.table)
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}
	args = append(args, plan.Limit)
	b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, plan.Offset)
	b.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return b.String(), args, nil
}
