package db

import "time"

// ===========================
// ACCOUNT MODELS
// ===========================

// Account roles. Every authenticated principal carries exactly one.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleCandidate = "candidate"
)

// Account statuses. Only active accounts may act.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Account represents a platform user: an administrator, a recruiter who owns
// postings, or a candidate who submits applications.
type Account struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
}

// ===========================
// POSTING MODELS
// ===========================

// Posting is a published job offer. RecruiterID is the owning recruiter and is
// immutable after creation; postings are globally readable.
type Posting struct {
	ID          string    `json:"id"`
	RecruiterID string    `json:"recruiter_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Type        string    `json:"type"` // full-time, part-time, contract, internship
	Salary      string    `json:"salary,omitempty"`
	Description string    `json:"description"`
	PostedDate  time.Time `json:"posted_date"`
}

// ===========================
// APPLICATION MODELS
// ===========================

// Application statuses. Accepted and rejected are terminal.
const (
	ApplicationPending   = "pending"
	ApplicationReviewed  = "reviewed"
	ApplicationInterview = "interview"
	ApplicationAccepted  = "accepted"
	ApplicationRejected  = "rejected"
)

// Application links a candidate to a posting. At most one application may
// exist per (posting_id, candidate_id) pair; the database enforces this with a
// unique constraint so concurrent submissions cannot both succeed.
type Application struct {
	ID            string    `json:"id"`
	PostingID     string    `json:"posting_id"`
	CandidateID   string    `json:"candidate_id"`
	CoverLetter   string    `json:"cover_letter"`
	AttachmentRef string    `json:"attachment_ref"`
	Phone         string    `json:"phone,omitempty"`
	Location      string    `json:"location,omitempty"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"` // recruiter-only annotations
	AppliedAt     time.Time `json:"applied_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ===========================
// INTERVIEW MODELS
// ===========================

// Interview statuses.
const (
	InterviewScheduled = "scheduled"
	InterviewCompleted = "completed"
	InterviewCancelled = "cancelled"
)

// Interview is scheduled by a recruiter against an existing application.
// RecruiterID must match the recruiter owning the posting reachable through
// ApplicationID, unless the interview was created by an admin.
type Interview struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"application_id"`
	RecruiterID     string    `json:"recruiter_id"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"` // physical address or meeting link
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	Score           *int      `json:"score,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ===========================
// NOTIFICATION MODELS
// ===========================

// Notification is a persisted copy of a queue event, delivered to an account's
// inbox by the notification worker.
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidApplicationStatus reports whether s is a known application status.
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationInterview, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// TerminalApplicationStatus reports whether s is a terminal application
// status. Terminal applications accept no further status transitions.
func TerminalApplicationStatus(s string) bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// ValidInterviewStatus reports whether s is a known interview status.
func ValidInterviewStatus(s string) bool {
	switch s {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled:
		return true
	}
	return false
}
