package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
)

// Memory is an in-process Store used by tests. It evaluates query plans with
// the same semantics the Postgres store compiles to SQL: AND-combined
// conditions, case-insensitive substring matching, multi-key sorting with the
// id tie-break, and offset/limit pagination.
type Memory struct {
	mu            sync.Mutex
	accounts      map[string]*db.Account
	postings      map[string]*db.Posting
	applications  map[string]*db.Application
	interviews    map[string]*db.Interview
	notifications map[string]*db.Notification
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:      make(map[string]*db.Account),
		postings:      make(map[string]*db.Posting),
		applications:  make(map[string]*db.Application),
		interviews:    make(map[string]*db.Interview),
		notifications: make(map[string]*db.Notification),
	}
}

var _ Store = (*Memory)(nil)

// ============================================================================
// Accounts
// ============================================================================

func (s *Memory) CreateAccount(_ context.Context, a *db.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("email %s: %w", a.Email, ErrConflict)
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *Memory) GetAccount(_ context.Context, id string) (*db.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Memory) GetAccountByEmail(_ context.Context, email string) (*db.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	a.LastLogin = &t
	return nil
}

func (s *Memory) SetAccountStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

// ============================================================================
// Postings
// ============================================================================

func (s *Memory) CreatePosting(_ context.Context, p *db.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PostedDate.IsZero() {
		p.PostedDate = time.Now()
	}
	cp := *p
	s.postings[p.ID] = &cp
	return nil
}

func (s *Memory) GetPosting(_ context.Context, id string) (*db.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) ListPostings(_ context.Context, plan *authz.QueryPlan) ([]db.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []db.Posting
	for _, p := range s.postings {
		if s.planMatches(plan, s.postingField(p)) {
			rows = append(rows, *p)
		}
	}
	sortRows(rows, plan.Sort, func(p db.Posting, field string) any {
		return s.postingField(&p)(field)
	})
	return page(rows, plan.Offset, plan.Limit), nil
}

func (s *Memory) UpdatePosting(_ context.Context, id string, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	if !ok {
		return ErrNotFound
	}
	// Apply to a copy so a bad value leaves the row untouched, matching the
	// single-statement UPDATE of the SQL store.
	cp := *p
	var err error
	for field, value := range changes {
		switch field {
		case "title":
			cp.Title, err = asString(field, value)
		case "company":
			cp.Company, err = asString(field, value)
		case "location":
			cp.Location, err = asString(field, value)
		case "type":
			cp.Type, err = asString(field, value)
		case "salary":
			cp.Salary, err = asString(field, value)
		case "description":
			cp.Description, err = asString(field, value)
		default:
			return fmt.Errorf("field %q is not a column of postings", field)
		}
		if err != nil {
			return err
		}
	}
	*p = cp
	return nil
}

func (s *Memory) DeletePosting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.postings[id]; !ok {
		return ErrNotFound
	}
	delete(s.postings, id)
	return nil
}

// ============================================================================
// Applications
// ============================================================================

func (s *Memory) CreateApplication(_ context.Context, a *db.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness check and insert happen under one lock acquisition, matching
	// the single-statement guarantee of the SQL store.
	for _, existing := range s.applications {
		if existing.PostingID == a.PostingID && existing.CandidateID == a.CandidateID {
			return fmt.Errorf("candidate %s already applied to posting %s: %w",
				a.CandidateID, a.PostingID, ErrConflict)
		}
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now()
	if a.AppliedAt.IsZero() {
		a.AppliedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = db.ApplicationPending
	}
	cp := *a
	s.applications[a.ID] = &cp
	return nil
}

func (s *Memory) GetApplication(_ context.Context, id string) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Memory) ListApplications(_ context.Context, plan *authz.QueryPlan) ([]db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []db.Application
	for _, a := range s.applications {
		if s.planMatches(plan, s.applicationField(a)) {
			rows = append(rows, *a)
		}
	}
	sortRows(rows, plan.Sort, func(a db.Application, field string) any {
		return s.applicationField(&a)(field)
	})
	return page(rows, plan.Offset, plan.Limit), nil
}

func (s *Memory) UpdateApplication(_ context.Context, id string, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return ErrNotFound
	}
	cp := *a
	var err error
	for field, value := range changes {
		switch field {
		case "cover_letter":
			cp.CoverLetter, err = asString(field, value)
		case "attachment_ref":
			cp.AttachmentRef, err = asString(field, value)
		case "phone":
			cp.Phone, err = asString(field, value)
		case "location":
			cp.Location, err = asString(field, value)
		case "status":
			cp.Status, err = asString(field, value)
		case "notes":
			cp.Notes, err = asString(field, value)
		default:
			return fmt.Errorf("field %q is not a column of applications", field)
		}
		if err != nil {
			return err
		}
	}
	cp.UpdatedAt = time.Now()
	*a = cp
	return nil
}

func (s *Memory) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[id]; !ok {
		return ErrNotFound
	}
	delete(s.applications, id)
	return nil
}

func (s *Memory) ApplicationParties(_ context.Context, id string) (*Parties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applicationPartiesLocked(id)
}

func (s *Memory) applicationPartiesLocked(id string) (*Parties, error) {
	a, ok := s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	p, ok := s.postings[a.PostingID]
	if !ok {
		return nil, ErrNotFound
	}
	return &Parties{PostingID: p.ID, RecruiterID: p.RecruiterID, CandidateID: a.CandidateID}, nil
}

// ============================================================================
// Interviews
// ============================================================================

func (s *Memory) CreateInterview(_ context.Context, iv *db.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	now := time.Now()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	if iv.Status == "" {
		iv.Status = db.InterviewScheduled
	}
	cp := *iv
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *Memory) GetInterview(_ context.Context, id string) (*db.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (s *Memory) ListInterviews(_ context.Context, plan *authz.QueryPlan) ([]db.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []db.Interview
	for _, iv := range s.interviews {
		if s.planMatches(plan, s.interviewField(iv)) {
			rows = append(rows, *iv)
		}
	}
	sortRows(rows, plan.Sort, func(iv db.Interview, field string) any {
		return s.interviewField(&iv)(field)
	})
	return page(rows, plan.Offset, plan.Limit), nil
}

func (s *Memory) UpdateInterview(_ context.Context, id string, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return ErrNotFound
	}
	cp := *iv
	var err error
	for field, value := range changes {
		switch field {
		case "status":
			cp.Status, err = asString(field, value)
		case "notes":
			cp.Notes, err = asString(field, value)
		case "feedback":
			cp.Feedback, err = asString(field, value)
		case "score":
			var n int
			if n, err = asInt(field, value); err == nil {
				cp.Score = &n
			}
		case "scheduled_date":
			cp.ScheduledDate, err = asTime(field, value)
		case "duration_minutes":
			cp.DurationMinutes, err = asInt(field, value)
		case "location":
			cp.Location, err = asString(field, value)
		default:
			return fmt.Errorf("field %q is not a column of interviews", field)
		}
		if err != nil {
			return err
		}
	}
	cp.UpdatedAt = time.Now()
	*iv = cp
	return nil
}

func (s *Memory) DeleteInterview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.interviews, id)
	return nil
}

func (s *Memory) InterviewParties(_ context.Context, id string) (*Parties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.applicationPartiesLocked(iv.ApplicationID)
}

// ============================================================================
// Notifications
// ============================================================================

func (s *Memory) CreateNotification(_ context.Context, n *db.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *Memory) ListNotifications(_ context.Context, accountID string, limit int) ([]db.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []db.Notification
	for _, n := range s.notifications {
		if n.AccountID == accountID {
			rows = append(rows, *n)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return page(rows, 0, limit), nil
}

func (s *Memory) MarkNotificationRead(_ context.Context, id, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.AccountID != accountID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

// ============================================================================
// Plan evaluation
// ============================================================================

// Field accessors. Chain fields (posting_recruiter_id on applications,
// candidate_id on interviews) resolve through the parent rows, mirroring the
// joins the SQL store emits. Callers hold s.mu.

func (s *Memory) postingField(p *db.Posting) func(string) any {
	return func(field string) any {
		switch field {
		case "id":
			return p.ID
		case "recruiter_id":
			return p.RecruiterID
		case "title":
			return p.Title
		case "company":
			return p.Company
		case "location":
			return p.Location
		case "type":
			return p.Type
		case "description":
			return p.Description
		case "posted_date":
			return p.PostedDate
		}
		return nil
	}
}

func (s *Memory) applicationField(a *db.Application) func(string) any {
	return func(field string) any {
		switch field {
		case "id":
			return a.ID
		case "posting_id":
			return a.PostingID
		case "candidate_id":
			return a.CandidateID
		case "status":
			return a.Status
		case "applied_at":
			return a.AppliedAt
		case "updated_at":
			return a.UpdatedAt
		case "posting_recruiter_id":
			if p, ok := s.postings[a.PostingID]; ok {
				return p.RecruiterID
			}
			return ""
		}
		return nil
	}
}

func (s *Memory) interviewField(iv *db.Interview) func(string) any {
	return func(field string) any {
		switch field {
		case "id":
			return iv.ID
		case "application_id":
			return iv.ApplicationID
		case "recruiter_id":
			return iv.RecruiterID
		case "status":
			return iv.Status
		case "scheduled_date":
			return iv.ScheduledDate
		case "created_at":
			return iv.CreatedAt
		case "candidate_id":
			if a, ok := s.applications[iv.ApplicationID]; ok {
				return a.CandidateID
			}
			return ""
		}
		return nil
	}
}

func (s *Memory) planMatches(plan *authz.QueryPlan, get func(string) any) bool {
	match := func(c authz.Condition) bool {
		v, ok := get(c.Field).(string)
		if !ok {
			return false
		}
		if c.Op == authz.OpSubstring {
			return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
		}
		return v == c.Value
	}
	for _, c := range plan.Mandatory {
		if !match(c) {
			return false
		}
	}
	for _, c := range plan.Filters {
		if !match(c) {
			return false
		}
	}
	if plan.SearchTerm != "" {
		hit := false
		for _, field := range plan.SearchFields {
			if v, ok := get(field).(string); ok &&
				strings.Contains(strings.ToLower(v), strings.ToLower(plan.SearchTerm)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func sortRows[T any](rows []T, keys []authz.SortKey, get func(T, string) any) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(get(rows[i], k.Field), get(rows[j], k.Field))
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		bv := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return 0
}

// Change-set coercion. Change-sets that travelled through a JSON body carry
// float64 for numbers and RFC 3339 strings for times; accept those alongside
// the native types instead of asserting.

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", field, v)
	}
	return s, nil
}

func asInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", field, err)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("field %q: expected number, got %T", field, v)
}

func asTime(field string, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: %w", field, err)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("field %q: expected timestamp, got %T", field, v)
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
