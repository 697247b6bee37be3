package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

// UseCase is the approval gate: it creates approval requests, detects
// human decisions (a document relocated into Approved or Rejected),
// expires stale requests, and archives processed ones with an audit
// trail.
type UseCase struct {
	approvals repository.ApprovalRepository
	audit     repository.AuditLogRepository
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures the use case
type Option func(*UseCase)

// WithClock injects a clock, used by tests to advance time
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) { u.now = now }
}

// NewUseCase creates the approval gate
func NewUseCase(approvals repository.ApprovalRepository, audit repository.AuditLogRepository, log zerolog.Logger, opts ...Option) *UseCase {
	u := &UseCase{
		approvals: approvals,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateRequestInput are the parameters of a new approval request
type CreateRequestInput struct {
	ActionType string
	Details    []approval.Detail
	Reason     string
	Priority   model.Priority
	TTL        time.Duration
}

// CreateRequest renders a pending approval document and journals its
// creation
func (u *UseCase) CreateRequest(ctx context.Context, in CreateRequestInput) (*approval.Request, repository.DocRef, error) {
	req, err := approval.New(in.ActionType, in.Details, in.Reason, in.Priority, in.TTL)
	if err != nil {
		return nil, repository.DocRef{}, err
	}

	ref, err := u.approvals.Save(ctx, req)
	if err != nil {
		return nil, repository.DocRef{}, fmt.Errorf("save approval request: %w", err)
	}

	rec := repository.NewAuditRecord(repository.EventRequestCreated)
	rec.RequestID = req.ID()
	rec.ActionType = req.ActionType()
	rec.Priority = req.Priority().String()
	if err := u.audit.Append(ctx, repository.AuditApprovals, rec); err != nil {
		return nil, repository.DocRef{}, fmt.Errorf("journal request creation: %w", err)
	}

	u.log.Info().Str("request_id", req.ID()).Str("action", req.ActionType()).Msg("approval request created")
	return req, ref, nil
}

// ScanResult buckets every known request document by decision state.
// Expired is a read-only projection: the documents themselves still
// sit in Pending_Approval until the sweep relocates them.
type ScanResult struct {
	Pending  []repository.DocRef
	Approved []repository.DocRef
	Rejected []repository.DocRef
	Expired  []repository.DocRef
}

// Scan enumerates the stage folders without mutating storage
func (u *UseCase) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}
	now := u.now()

	var err error
	if result.Approved, err = u.approvals.ListByStage(ctx, model.StageApproved); err != nil {
		return nil, fmt.Errorf("list approved: %w", err)
	}
	if result.Rejected, err = u.approvals.ListByStage(ctx, model.StageRejected); err != nil {
		return nil, fmt.Errorf("list rejected: %w", err)
	}

	pending, err := u.approvals.ListByStage(ctx, model.StagePendingApproval)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	for _, ref := range pending {
		req, err := u.approvals.Load(ctx, ref)
		if err != nil {
			// A malformed document never aborts the scan; keep it
			// pending for a human to look at.
			u.log.Warn().Str("doc", ref.Path()).Err(err).Msg("unparsable request left pending")
			result.Pending = append(result.Pending, ref)
			continue
		}
		if req.IsExpired(now) {
			result.Expired = append(result.Expired, ref)
		} else {
			result.Pending = append(result.Pending, ref)
		}
	}

	return result, nil
}

// ActionDescriptor is the executable reconstruction of an approved
// request, handed back to whichever caller owns execution. Callers
// must validate the details before acting: a malformed document
// yields an empty detail set rather than an error.
type ActionDescriptor struct {
	ActionType  string
	Details     []approval.Detail
	RequestedAt time.Time
	ApprovedAt  time.Time
	Ref         repository.DocRef
}

// FinalizeApproved archives an approved request, journals the
// decision, removes the source document, and returns the action
// descriptor. Removing the source is what makes a second call fail
// with not-found instead of double-executing.
func (u *UseCase) FinalizeApproved(ctx context.Context, ref repository.DocRef) (*ActionDescriptor, error) {
	req, err := u.approvals.Load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := u.approvals.Archive(ctx, ref, approval.StatusApproved); err != nil {
		return nil, fmt.Errorf("archive approved request: %w", err)
	}

	rec := repository.NewAuditRecord(repository.EventRequestApproved)
	rec.RequestID = req.ID()
	rec.ActionType = req.ActionType()
	if err := u.audit.Append(ctx, repository.AuditApprovals, rec); err != nil {
		return nil, fmt.Errorf("journal approval: %w", err)
	}

	if err := u.approvals.Remove(ctx, ref); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("remove approved request: %w", err)
	}

	u.log.Info().Str("request_id", req.ID()).Msg("approval finalized")
	return &ActionDescriptor{
		ActionType:  req.ActionType(),
		Details:     req.Details(),
		RequestedAt: req.CreatedAt(),
		ApprovedAt:  u.now(),
		Ref:         ref,
	}, nil
}

// FinalizeRejected archives a rejected request and journals the
// decision. No descriptor: nothing gets executed.
func (u *UseCase) FinalizeRejected(ctx context.Context, ref repository.DocRef) error {
	req, err := u.approvals.Load(ctx, ref)
	if err != nil {
		return err
	}

	if err := u.approvals.Archive(ctx, ref, approval.StatusRejected); err != nil {
		return fmt.Errorf("archive rejected request: %w", err)
	}

	rec := repository.NewAuditRecord(repository.EventRequestRejected)
	rec.RequestID = req.ID()
	rec.ActionType = req.ActionType()
	if err := u.audit.Append(ctx, repository.AuditApprovals, rec); err != nil {
		return fmt.Errorf("journal rejection: %w", err)
	}

	if err := u.approvals.Remove(ctx, ref); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("remove rejected request: %w", err)
	}

	u.log.Info().Str("request_id", req.ID()).Msg("rejection finalized")
	return nil
}

// SweepExpired relocates every expired pending request into Rejected,
// journaling each as request_expired, which auditing must keep
// distinct from a human rejection. Returns how many were swept. A
// request vanishing mid-sweep means a human relocated it first; the
// sweep tolerates that and moves on.
func (u *UseCase) SweepExpired(ctx context.Context) (int, error) {
	scan, err := u.Scan(ctx)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, ref := range scan.Expired {
		req, err := u.approvals.Load(ctx, ref)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			u.log.Warn().Str("doc", ref.Path()).Err(err).Msg("skipping unloadable expired request")
			continue
		}

		if _, err := u.approvals.Relocate(ctx, ref, model.StageRejected); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return swept, fmt.Errorf("relocate expired request %s: %w", ref.Path(), err)
		}

		rec := repository.NewAuditRecord(repository.EventRequestExpired)
		rec.RequestID = req.ID()
		rec.ActionType = req.ActionType()
		if err := u.audit.Append(ctx, repository.AuditApprovals, rec); err != nil {
			return swept, fmt.Errorf("journal expiry: %w", err)
		}

		u.log.Info().Str("request_id", req.ID()).Msg("expired request swept to rejected")
		swept++
	}

	return swept, nil
}
