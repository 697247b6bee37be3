package executor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/YoshitsuguKoike/vaultloop/internal/application/port/output"
	"github.com/YoshitsuguKoike/vaultloop/internal/application/usecase/planner"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/model"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/repository"
	"github.com/YoshitsuguKoike/vaultloop/internal/domain/service/strategy"
)

const (
	// DefaultMaxPlansPerTick bounds how many approved plans one tick
	// picks up
	DefaultMaxPlansPerTick = 10

	// DefaultConcurrency bounds how many plans execute at once. Steps
	// within a plan always run sequentially.
	DefaultConcurrency = 2
)

// UseCase executes approved plans: each tick it picks up plans a
// human relocated into the approved folder, runs their steps, records
// every step in the audit log, and relocates the plan document to
// Done whatever the outcome.
type UseCase struct {
	plans      repository.PlanRepository
	audit      repository.AuditLogRepository
	planner    *planner.UseCase
	classifier strategy.ActionClassifier
	llm        output.LLMGateway
	mailer     output.MailGateway
	ledger     output.LedgerGateway
	log        zerolog.Logger

	maxPlansPerTick int
	concurrency     int
}

// Option configures the executor
type Option func(*UseCase)

// WithMaxPlansPerTick bounds plans picked up per tick
func WithMaxPlansPerTick(n int) Option {
	return func(u *UseCase) {
		if n > 0 {
			u.maxPlansPerTick = n
		}
	}
}

// WithConcurrency bounds plans executing in parallel
func WithConcurrency(n int) Option {
	return func(u *UseCase) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// NewUseCase creates the executor
func NewUseCase(
	plans repository.PlanRepository,
	audit repository.AuditLogRepository,
	pl *planner.UseCase,
	classifier strategy.ActionClassifier,
	llm output.LLMGateway,
	mailer output.MailGateway,
	ledger output.LedgerGateway,
	log zerolog.Logger,
	opts ...Option,
) *UseCase {
	u := &UseCase{
		plans:           plans,
		audit:           audit,
		planner:         pl,
		classifier:      classifier,
		llm:             llm,
		mailer:          mailer,
		ledger:          ledger,
		log:             log,
		maxPlansPerTick: DefaultMaxPlansPerTick,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Tick executes one pass: every approved plan (up to the per-tick
// bound) runs to completion. Plans run in parallel up to the
// concurrency bound; a failing plan never blocks the others. Returns
// how many plans were executed.
func (u *UseCase) Tick(ctx context.Context) (int, error) {
	refs, err := u.plans.ListApproved(ctx)
	if err != nil {
		return 0, fmt.Errorf("list approved plans: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}
	if len(refs) > u.maxPlansPerTick {
		refs = refs[:u.maxPlansPerTick]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if err := u.ExecutePlan(gctx, ref); err != nil {
				// Execution errors are logged per plan, not
				// propagated: one broken document must not stall the
				// loop.
				u.log.Error().Str("doc", ref.Path()).Err(err).Msg("plan execution failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return len(refs), nil
}

// ExecutePlan runs every step of one approved plan sequentially,
// journals each step, marks the outcome in the document, and
// relocates it to Done. Relocation is unconditional: a plan is only
// ever executed once, and its audit trail says how it went.
func (u *UseCase) ExecutePlan(ctx context.Context, ref repository.DocRef) error {
	p, err := u.plans.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	steps := p.Steps()
	u.log.Info().Str("plan_id", p.ID()).Int("steps", len(steps)).Msg("executing plan")

	ec := NewExecutionContext(p.ID())
	u.log.Info().Str("plan_id", p.ID()).Str("run_id", ec.RunID()).Msg("run started")
	allOK := true
	for i, step := range steps {
		result := u.runStep(ctx, ec, step)
		ec.Record(step.Ordinal, result)
		if !result.Success {
			allOK = false
		}

		rec := repository.NewAuditRecord(repository.EventStepExecuted)
		rec.PlanID = p.ID()
		rec.RunID = ec.RunID()
		rec.Step = step.Ordinal
		rec.ActionKind = result.Kind
		success := result.Success
		rec.Success = &success
		rec.Result = result.Content
		rec.Error = result.Error
		if err := u.audit.Append(ctx, repository.AuditExecution, rec); err != nil {
			return fmt.Errorf("journal step %d: %w", step.Ordinal, err)
		}

		note := fmt.Sprintf("step %d: %s", step.Ordinal, outcomeWord(result))
		if err := u.planner.UpdateProgress(ctx, ref, "Phase 3: Execution", i+1, len(steps), note); err != nil {
			u.log.Warn().Str("plan_id", p.ID()).Err(err).Msg("progress update failed")
		}

		u.log.Info().
			Str("plan_id", p.ID()).
			Str("run_id", ec.RunID()).
			Int("step", step.Ordinal).
			Str("kind", result.Kind).
			Bool("success", result.Success).
			Msg("step executed")
	}

	if err := u.planner.MarkComplete(ctx, ref, allOK); err != nil {
		u.log.Warn().Str("plan_id", p.ID()).Err(err).Msg("completion marking failed")
	}

	if _, err := u.plans.Relocate(ctx, ref, model.StageDone); err != nil {
		return fmt.Errorf("relocate plan to done: %w", err)
	}

	u.log.Info().Str("plan_id", p.ID()).Bool("success", allOK).Msg("plan moved to done")
	return nil
}

func outcomeWord(r StepResult) string {
	if r.Success {
		return "ok"
	}
	return "failed: " + r.Error
}
