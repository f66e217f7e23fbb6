package store

import (
	"reflect"
	"strings"
	"testing"

	"github.com/talenthubhq/talenthub/authz"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name      string
		plan      *authz.QueryPlan
		wantQuery string
		wantArgs  []any
	}{
		{
			name: "recruiter applications join through posting owner",
			plan: &authz.QueryPlan{
				Entity: authz.EntityApplication,
				Mandatory: []authz.Condition{
					{Field: "posting_recruiter_id", Op: authz.OpEquals, Value: "rec-1"},
				},
				Filters: []authz.Condition{
					{Field: "status", Op: authz.OpEquals, Value: "pending"},
				},
				Sort:   []authz.SortKey{{Field: "applied_at", Desc: true}, {Field: "id"}},
				Limit:  20,
				Offset: 0,
			},
			wantQuery: "SELECT a.id, a.posting_id, a.candidate_id, a.cover_letter, a.attachment_ref, " +
				"a.phone, a.location, a.status, a.notes, a.applied_at, a.updated_at " +
				"FROM applications a JOIN postings p ON p.id = a.posting_id " +
				"WHERE p.recruiter_id = $1 AND a.status = $2 " +
				"ORDER BY a.applied_at DESC, a.id ASC LIMIT $3 OFFSET $4",
			wantArgs: []any{"rec-1", "pending", 20, 0},
		},
		{
			name: "posting substring filter and search share ILIKE",
			plan: &authz.QueryPlan{
				Entity: authz.EntityPosting,
				Filters: []authz.Condition{
					{Field: "location", Op: authz.OpSubstring, Value: "Berlin"},
				},
				SearchTerm:   "backend",
				SearchFields: []string{"title", "description", "company"},
				Sort:         []authz.SortKey{{Field: "posted_date", Desc: true}, {Field: "id"}},
				Limit:        50,
				Offset:       10,
			},
			wantQuery: "SELECT p.id, p.recruiter_id, p.title, p.company, p.location, p.type, " +
				"p.salary, p.description, p.posted_date FROM postings p " +
				"WHERE p.location ILIKE $1 AND " +
				"(p.title ILIKE $2 OR p.description ILIKE $2 OR p.company ILIKE $2) " +
				"ORDER BY p.posted_date DESC, p.id ASC LIMIT $3 OFFSET $4",
			wantArgs: []any{"%Berlin%", "%backend%", 50, 10},
		},
		{
			name: "candidate interviews join through application",
			plan: &authz.QueryPlan{
				Entity: authz.EntityInterview,
				Mandatory: []authz.Condition{
					{Field: "candidate_id", Op: authz.OpEquals, Value: "can-1"},
				},
				Filters: []authz.Condition{
					{Field: "status", Op: authz.OpEquals, Value: "scheduled"},
				},
				Sort:   []authz.SortKey{{Field: "scheduled_date"}, {Field: "id"}},
				Limit:  20,
				Offset: 0,
			},
			wantQuery: "SELECT i.id, i.application_id, i.recruiter_id, i.scheduled_date, " +
				"i.duration_minutes, i.location, i.status, i.notes, i.feedback, i.score, " +
				"i.created_at, i.updated_at " +
				"FROM interviews i JOIN applications a ON a.id = i.application_id " +
				"WHERE a.candidate_id = $1 AND i.status = $2 " +
				"ORDER BY i.scheduled_date ASC, i.id ASC LIMIT $3 OFFSET $4",
			wantArgs: []any{"can-1", "scheduled", 20, 0},
		},
		{
			name: "unfiltered admin listing",
			plan: &authz.QueryPlan{
				Entity: authz.EntityApplication,
				Sort:   []authz.SortKey{{Field: "applied_at", Desc: true}, {Field: "id"}},
				Limit:  100,
				Offset: 200,
			},
			wantQuery: "SELECT a.id, a.posting_id, a.candidate_id, a.cover_letter, a.attachment_ref, " +
				"a.phone, a.location, a.status, a.notes, a.applied_at, a.updated_at " +
				"FROM applications a " +
				"ORDER BY a.applied_at DESC, a.id ASC LIMIT $1 OFFSET $2",
			wantArgs: []any{100, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildListQuery(tt.plan)
			if err != nil {
				t.Fatalf("buildListQuery() error = %v", err)
			}
			if query != tt.wantQuery {
				t.Errorf("query mismatch\n got: %s\nwant: %s", query, tt.wantQuery)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildListQueryJoinAddedOnce(t *testing.T) {
	plan := &authz.QueryPlan{
		Entity: authz.EntityApplication,
		Mandatory: []authz.Condition{
			{Field: "posting_recruiter_id", Op: authz.OpEquals, Value: "rec-1"},
		},
		Sort:  []authz.SortKey{{Field: "applied_at", Desc: true}, {Field: "id"}},
		Limit: 20,
	}
	query, _, err := buildListQuery(plan)
	if err != nil {
		t.Fatal(err)
	}
	const join = "JOIN postings p ON p.id = a.posting_id"
	if n := strings.Count(query, join); n != 1 {
		t.Errorf("join emitted %d times in %q", n, query)
	}
}

func TestBuildListQueryUnknownField(t *testing.T) {
	plan := &authz.QueryPlan{
		Entity:  authz.EntityPosting,
		Filters: []authz.Condition{{Field: "salary_band", Op: authz.OpEquals, Value: "x"}},
		Limit:   20,
	}
	if _, _, err := buildListQuery(plan); err == nil {
		t.Fatal("expected error for unmapped field")
	}
}
