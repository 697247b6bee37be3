package repository

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/lock"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
)

// ErrNotFound is returned when a vault document does not exist. A
// caller racing a human relocation must treat this as a normal
// outcome, not a failure.
var ErrNotFound = errors.New("document not found")

// DocRef addresses one document within the vault by folder and name.
// Relocation between folders is the only state-transition primitive
// exposed to humans.
type DocRef struct {
	Dir  string
	Name string
}

// Path returns the vault-relative path of the document
func (r DocRef) Path() string {
	return path.Join(r.Dir, r.Name)
}

// WorkItemRepository persists work items in their stage folders
type WorkItemRepository interface {
	// Save writes the item's document into its current stage folder.
	// Creating a second document with an existing ID is refused.
	Save(ctx context.Context, item *workitem.WorkItem) (DocRef, error)

	// Find loads an item by ID, searching all stage folders
	Find(ctx context.Context, id string) (*workitem.WorkItem, error)

	// ListByStage enumerates items currently in a stage
	ListByStage(ctx context.Context, stage model.Stage) ([]*workitem.WorkItem, error)

	// Move atomically relocates an item's document to another stage
	// folder after validating the transition.
	Move(ctx context.Context, id string, to model.Stage) error
}

// ApprovalRepository persists approval request documents
type ApprovalRepository interface {
	// Save writes a rendered request into the pending folder
	Save(ctx context.Context, req *approval.Request) (DocRef, error)

	// Load reads and parses the document at ref
	Load(ctx context.Context, ref DocRef) (*approval.Request, error)

	// ListByStage enumerates request documents in a stage folder
	ListByStage(ctx context.Context, stage model.Stage) ([]DocRef, error)

	// Archive copies the document into the audit archive for its
	// decision (Logs/approved or Logs/rejected), leaving the source
	// in place.
	Archive(ctx context.Context, ref DocRef, decision approval.Status) error

	// Relocate atomically moves the document to another stage folder
	Relocate(ctx context.Context, ref DocRef, to model.Stage) (DocRef, error)

	// Remove deletes the source document (the finalization step that
	// makes re-processing impossible)
	Remove(ctx context.Context, ref DocRef) error
}

// PlanRepository persists plan documents
type PlanRepository interface {
	// Save writes a rendered plan into the working Plans folder
	Save(ctx context.Context, p *plan.Plan) (DocRef, error)

	// Load reads and parses the document at ref
	Load(ctx context.Context, ref DocRef) (*plan.Plan, error)

	// LoadRaw reads the document text without parsing (for in-place
	// progress updates)
	LoadRaw(ctx context.Context, ref DocRef) (string, error)

	// Rewrite atomically replaces the document content at ref
	Rewrite(ctx context.Context, ref DocRef, content string) error

	// ListApproved enumerates plan documents a human has relocated
	// into the approved stage folder
	ListApproved(ctx context.Context) ([]DocRef, error)

	// Submit moves a plan from the working folder into the pending
	// approval stage folder
	Submit(ctx context.Context, ref DocRef) (DocRef, error)

	// Relocate atomically moves the document to a stage folder
	Relocate(ctx context.Context, ref DocRef, to model.Stage) (DocRef, error)
}

// AuditDomain names one append-only audit stream
type AuditDomain string

const (
	AuditApprovals AuditDomain = "approvals"
	AuditPlans     AuditDomain = "plans"
	AuditExecution AuditDomain = "execution"
)

// AuditKind is the event kind of an audit record
type AuditKind string

const (
	EventRequestCreated  AuditKind = "request_created"
	EventRequestApproved AuditKind = "request_approved"
	EventRequestRejected AuditKind = "request_rejected"
	EventRequestExpired  AuditKind = "request_expired"
	EventPlanCreated     AuditKind = "plan_created"
	EventPlanCompleted   AuditKind = "plan_completed"
	EventStepExecuted    AuditKind = "step_executed"
)

// AuditRecord is one immutable audit log entry. Entries are written
// once and never mutated or deleted.
type AuditRecord struct {
	Timestamp  string    `json:"timestamp"`
	Kind       AuditKind `json:"event"`
	RequestID  string    `json:"request_id,omitempty"`
	ActionType string    `json:"action_type,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	PlanID     string    `json:"plan_id,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	WorkItemID string    `json:"work_item,omitempty"`
	Complexity string    `json:"complexity,omitempty"`
	Step       int       `json:"step,omitempty"`
	ActionKind string    `json:"action_kind,omitempty"`
	Success    *bool     `json:"success,omitempty"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewAuditRecord stamps a record with the current UTC time
func NewAuditRecord(kind AuditKind) AuditRecord {
	return AuditRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Kind:      kind,
	}
}

// AuditLogRepository is the append-only audit log, one NDJSON stream
// per domain
type AuditLogRepository interface {
	Append(ctx context.Context, domain AuditDomain, record AuditRecord) error
	Load(ctx context.Context, domain AuditDomain) ([]AuditRecord, error)
}

// RunLockRepository enforces the single-writer assumption
type RunLockRepository interface {
	// Acquire obtains the lock, reclaiming stale ones. Returns nil
	// (no error) when an active process already holds it.
	Acquire(ctx context.Context, lockID lock.LockID, ttl time.Duration) (*lock.RunLock, error)

	// Release frees the lock
	Release(ctx context.Context, lockID lock.LockID) error

	// Find loads the current lock, ErrNotFound when absent
	Find(ctx context.Context, lockID lock.LockID) (*lock.RunLock, error)
}
