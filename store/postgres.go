package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
)

// Postgres implements Store on top of database/sql with the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres store around an open connection pool.
func NewPostgres(sqlDB *sql.DB) *Postgres {
	return &Postgres{db: sqlDB}
}

var _ Store = (*Postgres)(nil)

// updatableColumns maps sanitized change fields onto table columns, per
// entity. Anything outside these maps is a programming error upstream.
var (
	postingColumns = map[string]string{
		"title": "title", "company": "company", "location": "location",
		"type": "type", "salary": "salary", "description": "description",
	}
	applicationColumns = map[string]string{
		"cover_letter": "cover_letter", "attachment_ref": "attachment_ref",
		"phone": "phone", "location": "location", "status": "status", "notes": "notes",
	}
	interviewColumns = map[string]string{
		"status": "status", "notes": "notes", "feedback": "feedback",
		"score": "score", "scheduled_date": "scheduled_date",
		"duration_minutes": "duration_minutes", "location": "location",
	}
)

// ============================================================================
// Accounts
// ============================================================================

func (s *Postgres) CreateAccount(ctx context.Context, a *db.Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, hashed_password, name, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.Email, a.HashedPassword, a.Name, a.Role, a.Status, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", a.Email, ErrConflict)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *Postgres) GetAccount(ctx context.Context, id string) (*db.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, name, role, status, created_at, last_login
		FROM accounts WHERE id = $1
	`, id))
}

func (s *Postgres) GetAccountByEmail(ctx context.Context, email string) (*db.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, name, role, status, created_at, last_login
		FROM accounts WHERE email = $1
	`, email))
}

func (s *Postgres) scanAccount(row *sql.Row) (*db.Account, error) {
	var a db.Account
	var lastLogin sql.NullTime
	err := row.Scan(&a.ID, &a.Email, &a.HashedPassword, &a.Name, &a.Role, &a.Status, &a.CreatedAt, &lastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return &a, nil
}

func (s *Postgres) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.execOne(ctx, `UPDATE accounts SET last_login = $1 WHERE id = $2`, at, id)
}

func (s *Postgres) SetAccountStatus(ctx context.Context, id, status string) error {
	return s.execOne(ctx, `UPDATE accounts SET status = $1 WHERE id = $2`, status, id)
}

// ============================================================================
// Postings
// ============================================================================

func (s *Postgres) CreatePosting(ctx context.Context, p *db.Posting) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PostedDate.IsZero() {
		p.PostedDate = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (id, recruiter_id, title, company, location, type, salary, description, posted_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.RecruiterID, p.Title, p.Company, p.Location, p.Type, p.Salary, p.Description, p.PostedDate)
	if err != nil {
		return fmt.Errorf("failed to create posting: %w", err)
	}
	return nil
}

func (s *Postgres) GetPosting(ctx context.Context, id string) (*db.Posting, error) {
	var p db.Posting
	err := s.db.QueryRowContext(ctx, `
		SELECT id, recruiter_id, title, company, location, type, salary, description, posted_date
		FROM postings WHERE id = $1
	`, id).Scan(&p.ID, &p.RecruiterID, &p.Title, &p.Company, &p.Location, &p.Type, &p.Salary, &p.Description, &p.PostedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return &p, nil
}

func (s *Postgres) ListPostings(ctx context.Context, plan *authz.QueryPlan) ([]db.Posting, error) {
	query, args, err := buildListQuery(plan)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var out []db.Posting
	for rows.Next() {
		var p db.Posting
		if err := rows.Scan(&p.ID, &p.RecruiterID, &p.Title, &p.Company, &p.Location,
			&p.Type, &p.Salary, &p.Description, &p.PostedDate); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdatePosting(ctx context.Context, id string, changes map[string]any) error {
	return s.applyChanges(ctx, "postings", postingColumns, id, changes, false)
}

func (s *Postgres) DeletePosting(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM postings WHERE id = $1`, id)
}

// ============================================================================
// Applications
// ============================================================================

// CreateApplication inserts the application only if no row holds the same
// (posting_id, candidate_id) pair. The check and the insert are a single
// statement so concurrent submissions cannot both succeed.
func (s *Postgres) CreateApplication(ctx context.Context, a *db.Application) error {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, posting_id, candidate_id, cover_letter, attachment_ref,
			phone, location, status, notes, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (posting_id, candidate_id) DO NOTHING
	`, a.ID, a.PostingID, a.CandidateID, a.CoverLetter, a.AttachmentRef,
		a.Phone, a.Location, a.Status, a.Notes, a.AppliedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("candidate %s already applied to posting %s: %w",
			a.CandidateID, a.PostingID, ErrConflict)
	}
	return nil
}

func (s *Postgres) GetApplication(ctx context.Context, id string) (*db.Application, error) {
	var a db.Application
	err := s.db.QueryRowContext(ctx, `
		SELECT id, posting_id, candidate_id, cover_letter, attachment_ref, phone, location,
			status, notes, applied_at, updated_at
		FROM applications WHERE id = $1
	`, id).Scan(&a.ID, &a.PostingID, &a.CandidateID, &a.CoverLetter, &a.AttachmentRef,
		&a.Phone, &a.Location, &a.Status, &a.Notes, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &a, nil
}

func (s *Postgres) ListApplications(ctx context.Context, plan *authz.QueryPlan) ([]db.Application, error) {
	query, args, err := buildListQuery(plan)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []db.Application
	for rows.Next() {
		var a db.Application
		if err := rows.Scan(&a.ID, &a.PostingID, &a.CandidateID, &a.CoverLetter,
			&a.AttachmentRef, &a.Phone, &a.Location, &a.Status, &a.Notes,
			&a.AppliedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateApplication(ctx context.Context, id string, changes map[string]any) error {
	return s.applyChanges(ctx, "applications", applicationColumns, id, changes, true)
}

func (s *Postgres) DeleteApplication(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM applications WHERE id = $1`, id)
}

func (s *Postgres) ApplicationParties(ctx context.Context, id string) (*Parties, error) {
	var pt Parties
	err := s.db.QueryRowContext(ctx, `
		SELECT a.posting_id, p.recruiter_id, a.candidate_id
		FROM applications a
		JOIN postings p ON p.id = a.posting_id
		WHERE a.id = $1
	`, id).Scan(&pt.PostingID, &pt.RecruiterID, &pt.CandidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve application parties: %w", err)
	}
	return &pt, nil
}

// ============================================================================
// Interviews
// ============================================================================

func (s *Postgres) CreateInterview(ctx context.Context, iv *db.Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	now := time.Now()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	if iv.Status == "" {
		iv.Status = db.InterviewScheduled
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interviews (id, application_id, recruiter_id, scheduled_date, duration_minutes,
			location, status, notes, feedback, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, iv.ID, iv.ApplicationID, iv.RecruiterID, iv.ScheduledDate, iv.DurationMinutes,
		iv.Location, iv.Status, iv.Notes, iv.Feedback, iv.Score, iv.CreatedAt, iv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

func (s *Postgres) GetInterview(ctx context.Context, id string) (*db.Interview, error) {
	var iv db.Interview
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, recruiter_id, scheduled_date, duration_minutes, location,
			status, notes, feedback, score, created_at, updated_at
		FROM interviews WHERE id = $1
	`, id).Scan(&iv.ID, &iv.ApplicationID, &iv.RecruiterID, &iv.ScheduledDate,
		&iv.DurationMinutes, &iv.Location, &iv.Status, &iv.Notes, &iv.Feedback,
		&score, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if score.Valid {
		v := int(score.Int64)
		iv.Score = &v
	}
	return &iv, nil
}

func (s *Postgres) ListInterviews(ctx context.Context, plan *authz.QueryPlan) ([]db.Interview, error) {
	query, args, err := buildListQuery(plan)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var out []db.Interview
	for rows.Next() {
		var iv db.Interview
		var score sql.NullInt64
		if err := rows.Scan(&iv.ID, &iv.ApplicationID, &iv.RecruiterID, &iv.ScheduledDate,
			&iv.DurationMinutes, &iv.Location, &iv.Status, &iv.Notes, &iv.Feedback,
			&score, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			iv.Score = &v
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateInterview(ctx context.Context, id string, changes map[string]any) error {
	return s.applyChanges(ctx, "interviews", interviewColumns, id, changes, true)
}

func (s *Postgres) DeleteInterview(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM interviews WHERE id = $1`, id)
}

func (s *Postgres) InterviewParties(ctx context.Context, id string) (*Parties, error) {
	var pt Parties
	err := s.db.QueryRowContext(ctx, `
		SELECT a.posting_id, p.recruiter_id, a.candidate_id
		FROM interviews i
		JOIN applications a ON a.id = i.application_id
		JOIN postings p ON p.id = a.posting_id
		WHERE i.id = $1
	`, id).Scan(&pt.PostingID, &pt.RecruiterID, &pt.CandidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve interview parties: %w", err)
	}
	return &pt, nil
}

// ============================================================================
// Notifications
// ============================================================================

func (s *Postgres) CreateNotification(ctx context.Context, n *db.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, account_id, kind, entity_id, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.AccountID, n.Kind, n.EntityID, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Postgres) ListNotifications(ctx context.Context, accountID string, limit int) ([]db.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, kind, entity_id, message, read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []db.Notification
	for rows.Next() {
		var n db.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Kind, &n.EntityID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkNotificationRead(ctx context.Context, id, accountID string) error {
	return s.execOne(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND account_id = $2`, id, accountID)
}

// ============================================================================
// Helpers
// ============================================================================

// applyChanges builds an UPDATE from a sanitized change-set. Columns are set
// in sorted field order so the generated SQL is deterministic. touch adds an
// updated_at bump for tables that carry one.
func (s *Postgres) applyChanges(ctx context.Context, table string, columns map[string]string,
	id string, changes map[string]any, touch bool) error {
	if len(changes) == 0 {
		return nil
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sets []string
	var args []any
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return fmt.Errorf("field %q is not a column of %s", f, table)
		}
		args = append(args, changes[f])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if touch {
		args = append(args, time.Now())
		sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	return s.execOne(ctx, query, args...)
}

// execOne runs a statement expected to touch exactly one row.
func (s *Postgres) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is Postgres error 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
