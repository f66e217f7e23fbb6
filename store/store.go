// Package store persists accounts, postings, applications, interviews and
// notifications, and executes the query plans produced by the authorization
// engine. Two implementations exist: Postgres for production and an in-memory
// store for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint blocks an insert,
	// such as a second application to the same posting.
	ErrConflict = errors.New("conflict")
)

// Parties is the resolved ownership chain for an application or interview:
// the posting it hangs off, the recruiter who owns that posting, and the
// candidate who applied.
type Parties struct {
	PostingID   string
	RecruiterID string
	CandidateID string
}

// AccountStore persists platform accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *db.Account) error
	GetAccount(ctx context.Context, id string) (*db.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*db.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetAccountStatus(ctx context.Context, id, status string) error
}

// PostingStore persists job postings.
type PostingStore interface {
	CreatePosting(ctx context.Context, p *db.Posting) error
	GetPosting(ctx context.Context, id string) (*db.Posting, error)
	ListPostings(ctx context.Context, plan *authz.QueryPlan) ([]db.Posting, error)
	UpdatePosting(ctx context.Context, id string, changes map[string]any) error
	DeletePosting(ctx context.Context, id string) error
}

// ApplicationStore persists applications. CreateApplication enforces the
// one-application-per-(posting, candidate) invariant atomically and returns
// ErrConflict when a concurrent or earlier insert already holds the pair.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *db.Application) error
	GetApplication(ctx context.Context, id string) (*db.Application, error)
	ListApplications(ctx context.Context, plan *authz.QueryPlan) ([]db.Application, error)
	UpdateApplication(ctx context.Context, id string, changes map[string]any) error
	DeleteApplication(ctx context.Context, id string) error
	// ApplicationParties resolves the ownership chain for one application.
	ApplicationParties(ctx context.Context, id string) (*Parties, error)
}

// InterviewStore persists interviews.
type InterviewStore interface {
	CreateInterview(ctx context.Context, iv *db.Interview) error
	GetInterview(ctx context.Context, id string) (*db.Interview, error)
	ListInterviews(ctx context.Context, plan *authz.QueryPlan) ([]db.Interview, error)
	UpdateInterview(ctx context.Context, id string, changes map[string]any) error
	DeleteInterview(ctx context.Context, id string) error
	// InterviewParties resolves the chain interview -> application -> posting.
	InterviewParties(ctx context.Context, id string) (*Parties, error)
}

// NotificationStore persists delivered notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *db.Notification) error
	ListNotifications(ctx context.Context, accountID string, limit int) ([]db.Notification, error)
	// MarkNotificationRead flips the read flag iff the notification belongs
	// to accountID; ErrNotFound otherwise.
	MarkNotificationRead(ctx context.Context, id, accountID string) error
}

// Store groups every persistence concern behind one interface.
type Store interface {
	AccountStore
	PostingStore
	ApplicationStore
	InterviewStore
	NotificationStore
}
