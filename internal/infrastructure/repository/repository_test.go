package repository

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v := NewVault(afero.NewMemMapFs(), "vault")
	require.NoError(t, v.EnsureLayout())
	return v
}

func TestWorkItemRepositorySaveAndFind(t *testing.T) {
	v := newTestVault(t)
	repo := NewWorkItemRepository(v)
	ctx := context.Background()

	item, err := workitem.New("Invoice from ACME", "Pay by Friday.", model.SourceMessage, model.PriorityHigh)
	require.NoError(t, err)

	ref, err := repo.Save(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", ref.Dir)

	found, err := repo.Find(ctx, item.ID())
	require.NoError(t, err)
	assert.Equal(t, item.ID(), found.ID())
	assert.Equal(t, model.SourceMessage, found.Source())
	assert.Equal(t, model.PriorityHigh, found.Priority())
	assert.Equal(t, "Invoice from ACME", found.Subject())
	assert.Equal(t, "Pay by Friday.", found.Body())
	assert.Equal(t, model.StageInbox, found.Stage())
}

func TestWorkItemRepositoryRejectsDuplicates(t *testing.T) {
	v := newTestVault(t)
	repo := NewWorkItemRepository(v)
	ctx := context.Background()

	item, _ := workitem.New("Same subject", "body", model.SourceManual, model.PriorityLow)
	_, err := repo.Save(ctx, item)
	require.NoError(t, err)

	_, err = repo.Save(ctx, item)
	assert.Error(t, err, "saving the same ID twice must be refused")
}

func TestWorkItemRepositoryMove(t *testing.T) {
	v := newTestVault(t)
	repo := NewWorkItemRepository(v)
	ctx := context.Background()

	item, _ := workitem.New("Complex migration", "integrate the systems", model.SourceMessage, model.PriorityMedium)
	_, err := repo.Save(ctx, item)
	require.NoError(t, err)
	before, err := afero.ReadFile(v.FS(), v.Abs("Inbox/"+item.ID()+".md"))
	require.NoError(t, err)

	require.NoError(t, repo.Move(ctx, item.ID(), model.StagePlanning))

	found, err := repo.Find(ctx, item.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StagePlanning, found.Stage())

	// The document physically moved
	exists, _ := afero.Exists(v.FS(), v.Abs("Inbox/"+item.ID()+".md"))
	assert.False(t, exists, "source document must not remain after a move")
	exists, _ = afero.Exists(v.FS(), v.Abs("Planning/"+item.ID()+".md"))
	assert.True(t, exists)

	// A move changes location only, never content
	after, err := afero.ReadFile(v.FS(), v.Abs("Planning/"+item.ID()+".md"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// Illegal transition is rejected and nothing moves
	err = repo.Move(ctx, item.ID(), model.StageApproved)
	assert.ErrorIs(t, err, workitem.ErrIllegalTransition)
}

func TestApprovalRepositoryRoundTrip(t *testing.T) {
	v := newTestVault(t)
	repo := NewApprovalRepository(v)
	ctx := context.Background()

	req, err := approval.New("send_email", []approval.Detail{
		{Key: "to", Value: "client@example.com"},
		{Key: "subject", Value: "Update"},
	}, "weekly report", model.PriorityMedium, time.Hour)
	require.NoError(t, err)

	ref, err := repo.Save(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Pending_Approval", ref.Dir)

	loaded, err := repo.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "send_email", loaded.ActionType())
	to, ok := loaded.DetailValue("to")
	assert.True(t, ok)
	assert.Equal(t, "client@example.com", to)
}

func TestApprovalRepositoryRelocateAndArchive(t *testing.T) {
	v := newTestVault(t)
	repo := NewApprovalRepository(v)
	ctx := context.Background()

	req, _ := approval.New("send_email", nil, "r", model.PriorityMedium, time.Hour)
	ref, err := repo.Save(ctx, req)
	require.NoError(t, err)

	// Simulate the human decision: relocate to Approved
	dest, err := repo.Relocate(ctx, ref, model.StageApproved)
	require.NoError(t, err)
	assert.Equal(t, "Approved", dest.Dir)

	refs, err := repo.ListByStage(ctx, model.StageApproved)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	require.NoError(t, repo.Archive(ctx, dest, approval.StatusApproved))
	exists, _ := afero.Exists(v.FS(), v.Abs("Logs/approved/"+dest.Name))
	assert.True(t, exists, "archive copy must exist")

	// Source still in place after archive (copy, not move)
	exists, _ = afero.Exists(v.FS(), v.Abs(dest.Path()))
	assert.True(t, exists)

	require.NoError(t, repo.Remove(ctx, dest))
	err = repo.Remove(ctx, dest)
	assert.ErrorIs(t, err, repository.ErrNotFound, "second removal must report not found")
}

func TestApprovalRepositoryRelocateMissing(t *testing.T) {
	v := newTestVault(t)
	repo := NewApprovalRepository(v)

	_, err := repo.Relocate(context.Background(), repository.DocRef{Dir: "Pending_Approval", Name: "APPROVAL_gone.md"}, model.StageRejected)
	assert.ErrorIs(t, err, repository.ErrNotFound, "sweep racing a human must see not-found, not an error")
}

func TestPlanRepositoryLifecycle(t *testing.T) {
	v := newTestVault(t)
	repo := NewPlanRepository(v)
	ctx := context.Background()

	p, err := plan.New("ITEM_x", "Handle the invoice", model.ComplexityMedium, []plan.Step{
		{Description: "Draft a reply"},
		{Description: "Send the email"},
	})
	require.NoError(t, err)

	ref, err := repo.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, PlansDir, ref.Dir)

	// Submit into pending approval, then simulate the human approving
	pending, err := repo.Submit(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "Pending_Approval", pending.Dir)

	approved, err := repo.Relocate(ctx, pending, model.StageApproved)
	require.NoError(t, err)

	refs, err := repo.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	loaded, err := repo.Load(ctx, refs[0])
	require.NoError(t, err)
	assert.Equal(t, p.ID(), loaded.ID())
	require.Len(t, loaded.Steps(), 2)

	// Executor parks it in Done
	done, err := repo.Relocate(ctx, approved, model.StageDone)
	require.NoError(t, err)
	assert.Equal(t, "Done", done.Dir)

	refs, err = repo.ListApproved(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs, "plan must leave Approved after relocation")
}

func TestAuditLogAppendLoad(t *testing.T) {
	v := newTestVault(t)
	repo := NewAuditLogRepository(v)
	ctx := context.Background()

	rec := repository.NewAuditRecord(repository.EventRequestCreated)
	rec.RequestID = "APPROVAL_x"
	rec.ActionType = "send_email"
	require.NoError(t, repo.Append(ctx, repository.AuditApprovals, rec))

	rec2 := repository.NewAuditRecord(repository.EventRequestExpired)
	rec2.RequestID = "APPROVAL_x"
	require.NoError(t, repo.Append(ctx, repository.AuditApprovals, rec2))

	records, err := repo.Load(ctx, repository.AuditApprovals)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, repository.EventRequestCreated, records[0].Kind)
	assert.Equal(t, repository.EventRequestExpired, records[1].Kind)

	// Streams are per-domain
	records, err = repo.Load(ctx, repository.AuditPlans)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuditLogSkipsCorruptedLines(t *testing.T) {
	v := newTestVault(t)
	repo := NewAuditLogRepository(v)
	ctx := context.Background()

	rec := repository.NewAuditRecord(repository.EventPlanCreated)
	require.NoError(t, repo.Append(ctx, repository.AuditPlans, rec))

	// Corrupt the stream by hand
	f, err := v.FS().OpenFile(v.Abs("Logs/plans.ndjson"), appendTestFlags, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rec2 := repository.NewAuditRecord(repository.EventPlanCompleted)
	require.NoError(t, repo.Append(ctx, repository.AuditPlans, rec2))

	records, err := repo.Load(ctx, repository.AuditPlans)
	require.NoError(t, err)
	assert.Len(t, records, 2, "corrupted line is skipped, valid entries survive")
}
