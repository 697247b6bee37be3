package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/plan"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model/workitem"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
)

// UseCase builds execution plans for complex work items and maintains
// their documents while execution is underway.
type UseCase struct {
	plans    repository.PlanRepository
	items    repository.WorkItemRepository
	audit    repository.AuditLogRepository
	strategy strategy.PlanningStrategy
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures the use case
type Option func(*UseCase)

// WithClock injects a clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) { u.now = now }
}

// NewUseCase creates the planner
func NewUseCase(
	plans repository.PlanRepository,
	items repository.WorkItemRepository,
	audit repository.AuditLogRepository,
	st strategy.PlanningStrategy,
	log zerolog.Logger,
	opts ...Option,
) *UseCase {
	u := &UseCase{
		plans:    plans,
		items:    items,
		audit:    audit,
		strategy: st,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ShouldPlan decides whether a piece of work warrants a structured
// plan before execution
func (u *UseCase) ShouldPlan(body string, source model.SourceType) bool {
	return u.strategy.ShouldPlan(body, source)
}

// Build creates a plan for a work item, writes its document into the
// working folder, promotes the item to the planning stage, and
// journals the creation. The returned ref addresses the rendered
// document; a human (or Submit) moves it onward from there.
func (u *UseCase) Build(ctx context.Context, item *workitem.WorkItem, summary string, complexity model.Complexity, steps []plan.Step) (*plan.Plan, repository.DocRef, error) {
	p, err := plan.New(item.ID(), summary, complexity, steps)
	if err != nil {
		return nil, repository.DocRef{}, err
	}

	ref, err := u.plans.Save(ctx, p)
	if err != nil {
		return nil, repository.DocRef{}, fmt.Errorf("save plan: %w", err)
	}

	if item.Stage() == model.StageInbox {
		if err := u.items.Move(ctx, item.ID(), model.StagePlanning); err != nil {
			return nil, repository.DocRef{}, fmt.Errorf("promote work item: %w", err)
		}
	}

	rec := repository.NewAuditRecord(repository.EventPlanCreated)
	rec.PlanID = p.ID()
	rec.WorkItemID = item.ID()
	rec.Complexity = complexity.String()
	if err := u.audit.Append(ctx, repository.AuditPlans, rec); err != nil {
		return nil, repository.DocRef{}, fmt.Errorf("journal plan creation: %w", err)
	}

	u.log.Info().Str("plan_id", p.ID()).Str("work_item", item.ID()).Int("steps", len(p.Steps())).Msg("plan created")
	return p, ref, nil
}

// Submit moves a drafted plan into the pending approval folder so a
// human can decide on it
func (u *UseCase) Submit(ctx context.Context, ref repository.DocRef) (repository.DocRef, error) {
	out, err := u.plans.Submit(ctx, ref)
	if err != nil {
		return repository.DocRef{}, fmt.Errorf("submit plan: %w", err)
	}
	u.log.Info().Str("doc", out.Path()).Msg("plan submitted for approval")
	return out, nil
}

// UpdateProgress rewrites the progress block of a plan document in
// place and optionally appends an execution note. Notes are only ever
// appended; the document never shrinks.
func (u *UseCase) UpdateProgress(ctx context.Context, ref repository.DocRef, phase string, completed, total int, note string) error {
	content, err := u.plans.LoadRaw(ctx, ref)
	if err != nil {
		return err
	}

	now := u.now()
	content = plan.UpdateProgressBlock(content, phase, completed, total, now)
	if note != "" {
		content = plan.AppendNote(content, note, now)
	}

	if err := u.plans.Rewrite(ctx, ref, content); err != nil {
		return fmt.Errorf("rewrite plan document: %w", err)
	}
	return nil
}

// MarkComplete records the outcome in the plan document and journals
// completion. The document is updated wherever it currently lives;
// relocation to Done is the executor's job.
func (u *UseCase) MarkComplete(ctx context.Context, ref repository.DocRef, success bool) error {
	content, err := u.plans.LoadRaw(ctx, ref)
	if err != nil {
		return err
	}

	content = plan.AppendCompletion(content, success, u.now())
	if err := u.plans.Rewrite(ctx, ref, content); err != nil {
		return fmt.Errorf("rewrite plan document: %w", err)
	}

	p, err := u.plans.Load(ctx, ref)
	if err != nil {
		return err
	}

	rec := repository.NewAuditRecord(repository.EventPlanCompleted)
	rec.PlanID = p.ID()
	rec.WorkItemID = p.WorkItemID()
	rec.Success = &success
	if err := u.audit.Append(ctx, repository.AuditPlans, rec); err != nil {
		return fmt.Errorf("journal plan completion: %w", err)
	}

	u.log.Info().Str("plan_id", p.ID()).Bool("success", success).Msg("plan marked complete")
	return nil
}
