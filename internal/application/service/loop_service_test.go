package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/executor"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/gate"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/planner"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/approval"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/ledger"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/llm"
	"github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/gateway/mail"
	infra "github.com/YoshitsuguKoike/vaultloop/internal/infrastructure/repository"
)

type loopFixture struct {
	fs        afero.Fs
	approvals repository.ApprovalRepository
	plans     repository.PlanRepository
	items     repository.WorkItemRepository
	audit     repository.AuditLogRepository
	gate      *gate.UseCase
	planner   *planner.UseCase
	mailer    *mail.MockGateway
	svc       *LoopService
}

func newLoopFixture(t *testing.T, interval time.Duration, gateOpts ...gate.Option) *loopFixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	vault := infra.NewVault(fs, "/vault")
	require.NoError(t, vault.EnsureLayout())

	approvals := infra.NewApprovalRepository(vault)
	plans := infra.NewPlanRepository(vault)
	items := infra.NewWorkItemRepository(vault)
	audit := infra.NewAuditLogRepository(vault)

	log := zerolog.Nop()
	g := gate.NewUseCase(approvals, audit, log, gateOpts...)
	pl := planner.NewUseCase(plans, items, audit, strategy.NewKeywordPlanningStrategy(), log)

	mailer := mail.NewMockGateway()
	ledgerGw := ledger.NewMockGateway()
	ex := executor.NewUseCase(
		plans, audit, pl,
		strategy.NewKeywordClassifier(),
		llm.NewMockGateway(), mailer, ledgerGw,
		log,
	)

	return &loopFixture{
		fs:        fs,
		approvals: approvals,
		plans:     plans,
		items:     items,
		audit:     audit,
		gate:      g,
		planner:   pl,
		mailer:    mailer,
		svc:       NewLoopService(g, ex, strategy.NewKeywordClassifier(), mailer, ledgerGw, log, interval),
	}
}

func TestRunOnceSweepsFinalizesAndExecutes(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)
	f := newLoopFixture(t, time.Minute, gate.WithClock(func() time.Time { return future }))
	ctx := context.Background()

	// An approval request that will have expired by the injected clock.
	_, staleRef, err := f.gate.CreateRequest(ctx, gate.CreateRequestInput{
		ActionType: "create_expense",
		Reason:     "Paper trail",
		Priority:   model.PriorityLow,
		TTL:        time.Hour,
	})
	require.NoError(t, err)

	// An approved standalone email action.
	_, emailRef, err := f.gate.CreateRequest(ctx, gate.CreateRequestInput{
		ActionType: "send_email",
		Details: []approval.Detail{
			{Key: "to", Value: "client@example.com"},
			{Key: "subject", Value: "Q3 numbers"},
			{Key: "body", Value: "Attached below."},
		},
		Reason:   "Client follow-up",
		Priority: model.PriorityHigh,
		TTL:      48 * time.Hour,
	})
	require.NoError(t, err)
	approvedEmail, err := f.approvals.Relocate(ctx, emailRef, model.StageApproved)
	require.NoError(t, err)

	// An approved plan awaiting execution.
	item, err := workitem.New("Weekly review", "Review the weekly backlog.", model.SourceManual, model.PriorityMedium)
	require.NoError(t, err)
	_, err = f.items.Save(ctx, item)
	require.NoError(t, err)
	_, planRef, err := f.planner.Build(ctx, item, "Weekly review", model.ComplexityLow, []plan.Step{
		{Description: "Review the backlog"},
	})
	require.NoError(t, err)
	pending, err := f.planner.Submit(ctx, planRef)
	require.NoError(t, err)
	approvedPlan, err := f.plans.Relocate(ctx, pending, model.StageApproved)
	require.NoError(t, err)

	require.NoError(t, f.svc.RunOnce(ctx))

	// Expired request swept to Rejected.
	swept, err := afero.Exists(f.fs, filepath.Join("/vault", "Rejected", staleRef.Name))
	require.NoError(t, err)
	assert.True(t, swept)

	// Approved email finalized and sent.
	sends := f.mailer.Sends()
	require.Len(t, sends, 1)
	assert.Equal(t, "client@example.com", sends[0].To)
	gone, err := afero.Exists(f.fs, filepath.Join("/vault", approvedEmail.Path()))
	require.NoError(t, err)
	assert.False(t, gone)

	// Approved plan executed and moved to Done.
	done, err := afero.Exists(f.fs, filepath.Join("/vault", "Done", approvedPlan.Name))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRunOnceIsIdempotentAcrossTicks(t *testing.T) {
	f := newLoopFixture(t, time.Minute)
	ctx := context.Background()

	_, ref, err := f.gate.CreateRequest(ctx, gate.CreateRequestInput{
		ActionType: "send_email",
		Details: []approval.Detail{
			{Key: "to", Value: "a@example.com"},
			{Key: "body", Value: "hello"},
		},
		Reason:   "Test",
		Priority: model.PriorityMedium,
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	_, err = f.approvals.Relocate(ctx, ref, model.StageApproved)
	require.NoError(t, err)

	require.NoError(t, f.svc.RunOnce(ctx))
	require.NoError(t, f.svc.RunOnce(ctx))

	// Finalization happened exactly once.
	assert.Len(t, f.mailer.Sends(), 1)
	records, err := f.audit.Load(ctx, repository.AuditApprovals)
	require.NoError(t, err)
	approvals := 0
	for _, rec := range records {
		if rec.Kind == repository.EventRequestApproved {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}

func TestRunContinuousStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newLoopFixture(t, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.RunContinuous(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}
